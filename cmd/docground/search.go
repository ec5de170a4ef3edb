package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/docground/internal/retriever"
	"github.com/dshills/docground/pkg/types"
)

var (
	searchScope   string
	searchLimit   int
	searchJSON    bool
	searchContext bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed documents",
	Long: `Retrieves the passages most relevant to a question. Results come from the
result cache, the configured vector search provider, or keyword ranking when
the provider fails or finds nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchScope, "scope", "", "only search this scope")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default search.page_size)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the result bundle as JSON")
	searchCmd.Flags().BoolVar(&searchContext, "context", false, "print the grounding context block instead of a list")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit := searchLimit
	if limit <= 0 {
		limit = currentConfig.Search.PageSize
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, currentConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	bundle, err := a.retriever.Search(ctx, retriever.Request{Query: args[0], Scope: searchScope, Limit: limit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case searchJSON:
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case searchContext:
		fmt.Fprintln(out, retriever.BuildContext(bundle.Results))
	default:
		printBundle(out, bundle)
	}
	return nil
}

func printBundle(out io.Writer, bundle *types.Bundle) {
	if len(bundle.Results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	fmt.Fprintf(out, "Results (%s):\n\n", bundle.Source)
	for i, r := range bundle.Results {
		// Format: [N] Title (Score)
		fmt.Fprintf(out, "  [%d] %s (%.2f)\n", i+1, r.Title, r.Score)
		if r.SourceLink != "" {
			fmt.Fprintf(out, "      Source: %s\n", r.SourceLink)
		}
		fmt.Fprintf(out, "      %s\n\n", snippet(r.Content, 160))
	}
}

// snippet shortens s to at most n runes
func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
