package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
)

var (
	searchScope string
	searchK     int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents by semantic similarity",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchScope, "scope", "local", "scope to search: local or shared")
	searchCmd.Flags().IntVarP(&searchK, "limit", "n", domain.DefaultSearchK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	scope, err := domain.ParseScope(searchScope)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.Broker.Search(context.Background(), scope, args[0], searchK, nil)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range hits {
		label := hit.Source
		if label == "" {
			label = hit.DocumentID
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, label, hit.Score)
		preview := hit.Content
		if len(preview) > 160 {
			preview = preview[:160] + "..."
		}
		cmd.Printf("      %s\n", preview)
		cmd.Println()
	}
	return nil
}
