package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/docground/internal/indexer"
	"github.com/dshills/docground/internal/retriever"
	"github.com/dshills/docground/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "docground"
	// ServerVersion is the current server version
	ServerVersion = "0.3.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	storage   storage.Storage
	indexer   *indexer.Indexer
	retriever *retriever.Retriever
}

// NewServer creates a new MCP server over already constructed components.
// The caller owns store and closes it after Serve returns.
func NewServer(store storage.Storage, idx *indexer.Indexer, ret *retriever.Retriever) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		storage:   store,
		indexer:   idx,
		retriever: ret,
	}

	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(s.mcp)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexDocumentTool(), s.handleIndexDocument)
	s.mcp.AddTool(indexDocumentsTool(), s.handleIndexDocuments)
	s.mcp.AddTool(deleteDocumentTool(), s.handleDeleteDocument)
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
