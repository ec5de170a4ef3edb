package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/docground/internal/logger"
	"github.com/dshills/docground/internal/mcp"
	"github.com/dshills/docground/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, currentConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// Startup info goes to stderr; stdout is reserved for the MCP protocol
	logger.Info("%s v%s starting build_mode=%s driver=%s vector_extension=%v",
		mcp.ServerName, version, storage.BuildMode, storage.DriverName, storage.VectorExtensionAvailable)

	server := mcp.NewServer(a.storage, a.indexer, a.retriever)
	logger.Info("MCP server ready, listening on stdio")

	err = server.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}
