package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driving"
)

var (
	addScope string
	addID    string
)

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Ingest a file into a scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addScope, "scope", "local", "target scope: local or shared")
	addCmd.Flags().StringVar(&addID, "id", "", "document identifier (default: generated)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	scope, err := domain.ParseScope(addScope)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	documentID := addID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	count, err := a.Ingestor.Ingest(context.Background(), driving.IngestRequest{
		DocumentID:       documentID,
		FilePath:         path,
		OriginalFilename: filepath.Base(path),
		Scope:            scope,
	})
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}

	cmd.Printf("Indexed %s into %s scope: %d chunks (document %s)\n", filepath.Base(path), scope, count, documentID)
	return nil
}
