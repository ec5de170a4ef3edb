package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/docground/pkg/types"
)

var (
	indexID    string
	indexTitle string
	indexScope string
	indexLink  string
)

var indexCmd = &cobra.Command{
	Use:   "index <file>...",
	Short: "Index text files",
	Long: `Indexes one or more plain text files. Each file becomes one document whose
ID defaults to the file path and whose title defaults to the file name.
Unchanged files are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexID, "id", "", "document ID (single file only)")
	indexCmd.Flags().StringVar(&indexTitle, "title", "", "document title (single file only)")
	indexCmd.Flags().StringVar(&indexScope, "scope", "", "scope for all documents")
	indexCmd.Flags().StringVar(&indexLink, "link", "", "source link (single file only)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) > 1 && (indexID != "" || indexTitle != "" || indexLink != "") {
		return errors.New("--id, --title and --link require exactly one file")
	}

	docs := make([]types.Document, 0, len(args))
	for _, path := range args {
		doc, err := readDocument(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, currentConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	if len(docs) == 1 {
		res, err := a.indexer.IndexDocument(ctx, docs[0])
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		if res.Skipped {
			fmt.Fprintf(out, "Unchanged: %s\n", res.DocumentID)
			return nil
		}
		fmt.Fprintf(out, "Indexed %s (%d chunks)\n", res.DocumentID, res.Chunks)
		return nil
	}

	stats, err := a.indexer.IndexDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	fmt.Fprintf(out, "Indexed %d, skipped %d, failed %d (%d chunks) in %v\n",
		stats.DocumentsIndexed, stats.DocumentsSkipped, stats.DocumentsFailed, stats.ChunksCreated, stats.Duration.Round(time.Millisecond))
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(out, "  error: %s\n", msg)
	}
	if stats.DocumentsFailed > 0 {
		return fmt.Errorf("%d documents failed", stats.DocumentsFailed)
	}
	return nil
}

func readDocument(path string) (types.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	doc := types.Document{
		ID:         filepath.ToSlash(filepath.Clean(path)),
		Scope:      indexScope,
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content:    string(content),
		SourceLink: indexLink,
	}
	if indexID != "" {
		doc.ID = indexID
	}
	if indexTitle != "" {
		doc.Title = indexTitle
	}
	return doc, nil
}
