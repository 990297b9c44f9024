package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve context for a query",
	Long: `Runs the full retrieval over the project index, and the web when
web_search_enabled is set, then prints the deduplicated snippets.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum results (overrides config)")
	searchCmd.Flags().Float64("min-score", 0, "minimum similarity score (overrides config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		b.cfg.MaxResults = limit
	}
	if minScore, _ := cmd.Flags().GetFloat64("min-score"); minScore > 0 {
		b.cfg.MinScore = minScore
	}

	query := strings.Join(args, " ")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	snippets := b.orchestrator(nil).Retrieve(ctx, query)
	if len(snippets) == 0 {
		fmt.Println("No relevant context found. Run `recall index` if the project is not indexed yet.")
		return nil
	}

	for i, s := range snippets {
		fmt.Printf("--- %d [%s]", i+1, s.Origin)
		if s.Path != "" {
			fmt.Printf(" %s", s.Path)
		}
		if s.Score > 0 {
			fmt.Printf(" (%.2f)", s.Score)
		}
		fmt.Printf("\n%s\n\n", s.Text)
	}
	return nil
}
