package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/intake"
	"github.com/ppiankov/claimflow/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the claim submission and retrieval API",
	Long: `Serve starts the HTTP API:
- POST /api/process-claim accepts a submission and answers 202 at once
- GET  /api/claim-results, /api/claim-results/{claimId}
- GET  /api/submitters/{submitterId}/claims[/{claimId}]
- GET  /api/runs/{submissionId} returns the orchestration log while cached
- GET  /api/health

Each submission runs in the background. On SIGINT/SIGTERM the server stops
accepting requests and waits up to server.shutdown_timeout for running claims.

Example:
  claimflow serve
  claimflow serve --addr :8080 --mode dynamic
  CLAIMFLOW_SERVER_MAX_IN_FLIGHT=4 claimflow serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().Int("max-in-flight", 0, "maximum concurrently running submissions (0 = unbounded)")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_in_flight", serveCmd.Flags().Lookup("max-in-flight"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	submissions := intake.New(eng.runner, cfg.Server,
		intake.WithLogger(logger.Named("intake")),
		intake.WithMode(cfg.Pipeline.Mode),
	)

	srv := server.New(server.Deps{
		Submissions: submissions,
		Records:     eng.store,
		Tools:       eng.registry,
		Knowledge:   eng.knowledge,
		Mode:        cfg.Pipeline.Mode,
		LLM:         cfg.LLM,
		Logger:      logger.Named("http"),
	})

	logger.Info("Claimflow starting",
		zap.String("version", Version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("mode", string(cfg.Pipeline.Mode)),
		zap.Int("max_in_flight", cfg.Server.MaxInFlight))

	if err := srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("Claimflow stopped")
	return nil
}
