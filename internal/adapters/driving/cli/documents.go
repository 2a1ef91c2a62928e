package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
)

var documentsScope string

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List indexed documents in a scope",
	RunE:  runDocuments,
}

func init() {
	documentsCmd.Flags().StringVar(&documentsScope, "scope", "local", "scope to list: local or shared")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	scope, err := domain.ParseScope(documentsScope)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.Broker.List(context.Background(), scope)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in %s scope.\n", scope)
		return nil
	}

	cmd.Printf("Documents in %s scope:\n\n", scope)
	for _, doc := range docs {
		name := doc.OriginalFilename
		if name == "" {
			name = doc.DocumentID
		}
		cmd.Printf("  %-40s %4d chunks  %s\n", name, doc.TotalChunks, doc.DocumentID)
	}
	return nil
}
