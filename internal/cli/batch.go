package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimflow/internal/worker"
)

var (
	batchOut     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Process many claim submissions from a file in parallel",
	Long: `Batch processes many claim submissions concurrently:
- Read submissions from the input file (one JSON object per line, or a JSON array)
- Run each submission with a configurable number of workers
- Append every finished claim to the result store
- Optionally write every orchestration log as JSON lines

Example:
  claimflow batch claims.jsonl
  claimflow batch claims.jsonl --concurrency 8 --out runs.jsonl
  claimflow batch claims.json --mode dynamic --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 0, "number of concurrent workers (default from batch.concurrency)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write orchestration logs as JSON lines to this path")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	_ = viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Claimflow Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Mode:         %s\n", cfg.Pipeline.Mode)
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Batch.Concurrency)
	fmt.Fprintf(stderr, "  Store:        %s\n", cfg.Store.Path)
	fmt.Fprintf(stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "\n")

	entries, err := worker.ReadSubmissionsFromFile(file)
	if err != nil {
		return fmt.Errorf("read submissions: %w", err)
	}
	fmt.Fprintf(stderr, "✓ Loaded %d submissions\n\n", len(entries))

	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(eng.runner, cfg.Batch.Concurrency)
	results := processor.ProcessEntries(ctx, entries)

	var enc *json.Encoder
	if batchOut != "" {
		f, err := os.Create(batchOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		enc = json.NewEncoder(f)
	}

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if enc != nil && result.Log != nil {
			if err := enc.Encode(result.Log); err != nil {
				return fmt.Errorf("write orchestration log: %w", err)
			}
		}

		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ line %d: %v\n", result.Line, result.Error)
			continue
		}

		successCount++
		rec := result.Log.FinalRecord
		fmt.Fprintf(stderr, "✓ line %d: %s/%s\n", result.Line, rec.SubmitterID, rec.ClaimID)
	}

	// Summary
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d submissions\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d submissions failed", failureCount, len(results))
	}
	return nil
}
