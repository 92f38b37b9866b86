package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var knowledgeTopK int

// knowledgeCmd represents the knowledge command
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Inspect the reference documents used during enrichment",
	Long: `Reference documents (.txt, .md, .html) are read from knowledge.dir and,
when configured, knowledge.urls. They are split into chunks and ranked by
word overlap with the enrichment queries.`,
}

var knowledgeRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Load every reference document and report the index size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		stats, err := newKnowledge(cfg, logger).Rebuild(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Directory:  %s\n", cfg.Knowledge.Dir)
		fmt.Fprintf(out, "URLs:       %d\n", len(cfg.Knowledge.URLs))
		fmt.Fprintf(out, "Documents:  %d\n", stats.Documents)
		fmt.Fprintf(out, "Chunks:     %d\n", stats.Chunks)
		fmt.Fprintf(out, "Elapsed:    %v\n", stats.Elapsed)
		return nil
	},
}

var knowledgeQueryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Show the chunks that best match a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		index := newKnowledge(cfg, logger)
		if _, err := index.Rebuild(cmd.Context()); err != nil {
			return err
		}

		k := knowledgeTopK
		if k <= 0 {
			k = cfg.Knowledge.TopK
		}

		out := cmd.OutOrStdout()
		matches := index.Search(strings.Join(args, " "), k)
		if len(matches) == 0 {
			fmt.Fprintln(out, "No reference documents indexed")
			return nil
		}
		for i, m := range matches {
			fmt.Fprintf(out, "%d. %s (score %d)\n", i+1, m.ID, m.Score)
			fmt.Fprintf(out, "   %s\n\n", preview(m.Text, 200))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
	knowledgeCmd.AddCommand(knowledgeRebuildCmd)
	knowledgeCmd.AddCommand(knowledgeQueryCmd)

	knowledgeQueryCmd.Flags().IntVar(&knowledgeTopK, "top", 0, "number of chunks to show (default from knowledge.top_k)")
}

// preview shortens text to at most n runes
func preview(text string, n int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
