package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docground/internal/indexer"
	"github.com/dshills/docground/internal/retriever"
	"github.com/dshills/docground/internal/storage"
	"github.com/dshills/docground/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeDocumentNotFound   = -32001 // No document with the given ID
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleIndexDocument handles the index_document tool invocation
func (s *Server) handleIndexDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	doc := documentFromArgs(args)
	for _, param := range []struct{ name, value string }{{"title", doc.Title}, {"content", doc.Content}} {
		if strings.TrimSpace(param.value) == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, param.name+" parameter is required", map[string]interface{}{
				"param":  param.name,
				"reason": "missing or empty",
			})
		}
	}

	start := time.Now()
	res, err := s.indexer.IndexDocument(ctx, doc)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":     !res.Skipped,
		"document_id": res.DocumentID,
		"scope":       res.Scope,
		"chunks":      res.Chunks,
		"skipped":     res.Skipped,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexDocuments handles the index_documents tool invocation
func (s *Server) handleIndexDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	items, ok := args["documents"].([]interface{})
	if !ok || len(items) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "documents parameter is required", map[string]interface{}{
			"param":  "documents",
			"reason": "missing or empty",
		})
	}

	docs := make([]types.Document, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "documents must be objects", map[string]interface{}{
				"param": fmt.Sprintf("documents[%d]", i),
			})
		}
		docs = append(docs, documentFromArgs(fields))
	}

	stats, err := s.indexer.IndexDocuments(ctx, docs)
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "another indexing run is in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"documents_indexed": stats.DocumentsIndexed,
		"documents_skipped": stats.DocumentsSkipped,
		"documents_failed":  stats.DocumentsFailed,
		"chunks_created":    stats.ChunksCreated,
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteDocument handles the delete_document tool invocation
func (s *Server) handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	if err := s.indexer.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeDocumentNotFound, "document not found", map[string]interface{}{
				"id": id,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted":     true,
		"document_id": id,
	})), nil
}

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", retriever.DefaultLimit)
	if limit < 1 || limit > retriever.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", retriever.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	bundle, err := s.retriever.Search(ctx, retriever.Request{
		Query: query,
		Scope: getStringDefault(args, "scope", ""),
		Limit: limit,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":     bundle.Query,
		"scope":     bundle.Scope,
		"source":    bundle.Source,
		"results":   bundle.Results,
		"citations": bundle.Citations(),
		"context":   retriever.BuildContext(bundle.Results),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Arguments are optional for get_status
	args, _ := request.Params.Arguments.(map[string]interface{})
	scope := getStringDefault(args, "scope", "")

	status, err := s.storage.GetStatus(ctx, scope)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	lastIndexed := ""
	if !status.LastIndexedAt.IsZero() {
		lastIndexed = status.LastIndexedAt.Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"indexed":         status.DocumentsCount > 0,
		"scope":           status.Scope,
		"last_indexed_at": lastIndexed,
		"schema_version":  status.SchemaVersion,
		"statistics": map[string]interface{}{
			"documents_count":  status.DocumentsCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"cache_entries":    status.CacheEntries,
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"vector_extension":     status.Health.VectorExtension,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// documentFromArgs maps tool arguments onto a document
func documentFromArgs(args map[string]interface{}) types.Document {
	return types.Document{
		ID:         getStringDefault(args, "id", ""),
		Scope:      getStringDefault(args, "scope", ""),
		Title:      getStringDefault(args, "title", ""),
		Content:    getStringDefault(args, "content", ""),
		SourceLink: getStringDefault(args, "link", ""),
	}
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
