package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimflow/internal/store"
)

var resultsClaimID string

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results [submitterId] [claimId]",
	Short: "Show stored claim records",
	Long: `Results prints records from the result store as JSON:
- no arguments: every record, keyed by submitter
- submitterId: that submitter's records in append order
- submitterId claimId: one record
- --claim CLM001: the first record with that claim id across submitters

Example:
  claimflow results
  claimflow results user-17
  claimflow results user-17 CLM002
  claimflow results --claim CLM001`,
	Args: cobra.MaximumNArgs(2),
	RunE: runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().StringVar(&resultsClaimID, "claim", "", "find a claim id across all submitters")
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	results := store.New(cfg.Store.Path, nil)

	var out any
	switch {
	case resultsClaimID != "":
		out, err = results.FindClaim(resultsClaimID)
	case len(args) == 2:
		out, err = results.Claim(args[0], args[1])
	case len(args) == 1:
		out, err = results.Submitter(args[0])
	default:
		out, err = results.All()
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Store.Path, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
