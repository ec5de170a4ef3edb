package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusScope string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusScope, "scope", "", "restrict counts to one scope")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, currentConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	status, err := a.storage.GetStatus(ctx, statusScope)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	lastIndexed := "never"
	if !status.LastIndexedAt.IsZero() {
		lastIndexed = status.LastIndexedAt.Format(time.RFC3339)
	}
	scope := status.Scope
	if scope == "" {
		scope = "(all)"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database:       %s\n", currentConfig.DBPath)
	fmt.Fprintf(out, "Scope:          %s\n", scope)
	fmt.Fprintf(out, "Documents:      %d\n", status.DocumentsCount)
	fmt.Fprintf(out, "Chunks:         %d\n", status.ChunksCount)
	fmt.Fprintf(out, "Embeddings:     %d\n", status.EmbeddingsCount)
	fmt.Fprintf(out, "Cache entries:  %d\n", status.CacheEntries)
	fmt.Fprintf(out, "Last indexed:   %s\n", lastIndexed)
	fmt.Fprintf(out, "Schema version: %s\n", status.SchemaVersion)
	fmt.Fprintf(out, "Vector ext:     %v\n", status.Health.VectorExtension)
	return nil
}
