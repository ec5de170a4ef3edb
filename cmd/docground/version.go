package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/docground/internal/mcp"
	"github.com/dshills/docground/internal/storage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	// Skip config loading so version works without a usable config
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "docground version %s\n", version)
		fmt.Fprintf(out, "Build Time: %s\n", buildTime)
		fmt.Fprintf(out, "MCP Server: %s %s\n", mcp.ServerName, mcp.ServerVersion)
		fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
		fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
		fmt.Fprintf(out, "Vector Extension: %v\n", storage.VectorExtensionAvailable)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
