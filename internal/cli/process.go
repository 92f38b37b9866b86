package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/claimflow/internal/model"
)

var (
	processOut     string
	processTimeout time.Duration
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process a single claim submission and print its orchestration log",
	Long: `Process runs one claim submission through the configured orchestrator
and waits for it to finish:
- Read the submission ({"text": ..., "claimFormData": {...}}) from a file or stdin ("-")
- Run the fixed pipeline or the dynamic planner (--mode)
- Append the final claim record to the result store
- Print the orchestration log as JSON

Example:
  claimflow process claim.json
  cat claim.json | claimflow process - --mode dynamic
  claimflow process claim.json --out run.json --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processOut, "out", "", "write the orchestration log to this path instead of stdout")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 10*time.Minute, "overall processing timeout")
}

func runProcess(cmd *cobra.Command, args []string) error {
	sub, err := readSubmission(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), processTimeout)
	defer cancel()

	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	log := eng.runner.Run(ctx, uuid.NewString(), sub)

	out := cmd.OutOrStdout()
	if processOut != "" {
		f, err := os.Create(processOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("write orchestration log: %w", err)
	}

	if log.Status != model.StatusComplete {
		return fmt.Errorf("claim not processed: %s", runSummary(log))
	}
	if log.FinalRecord != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Stored %s for %s\n", log.FinalRecord.ClaimID, log.FinalRecord.SubmitterID)
	}
	return nil
}

// readSubmission decodes one submission from path, or from stdin when path is "-"
func readSubmission(stdin io.Reader, path string) (model.ClaimSubmission, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.ClaimSubmission{}, fmt.Errorf("read submission: %w", err)
	}

	var sub model.ClaimSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		return model.ClaimSubmission{}, fmt.Errorf("decode submission: %w", err)
	}
	return sub, nil
}

// runSummary renders a terminal status with its error, if any
func runSummary(log *model.OrchestrationLog) string {
	if log.Error == "" {
		return string(log.Status)
	}
	return fmt.Sprintf("%s (%s)", log.Status, log.Error)
}
