// Package mcp implements the Model Context Protocol (MCP) server for docground.
//
// The server exposes five tools to MCP clients:
//   - index_document: Index or re-index one document
//   - index_documents: Index a batch of documents concurrently
//   - delete_document: Remove a document from the index
//   - search_documents: Retrieve cited passages for a question
//   - get_status: Report index statistics and health
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr so they never interleave with protocol messages on stdout.
//
// # Basic Usage
//
//	docground serve --config docground.yaml
//
// # Tool: search_documents
//
//	Request:
//	{
//	  "name": "search_documents",
//	  "arguments": {
//	    "query": "hvor mange feriedager har jeg?",
//	    "scope": "org-1",
//	    "limit": 5
//	  }
//	}
//
//	Response:
//	{
//	  "query": "hvor mange feriedager har jeg?",
//	  "scope": "org-1",
//	  "source": "vector",
//	  "results": [{"id": "handbook-7", "title": "Ferieregler", "content": "...", "score": 0.83}],
//	  "citations": [{"id": "handbook-7", "title": "Ferieregler"}],
//	  "context": "---\nDOCUMENT: Ferieregler\nCONTENT:\n...\n---"
//	}
//
// The context field is ready to be placed in a generation prompt. source is
// one of cache, vector, keyword or none.
//
// # Error Handling
//
// Tool errors are returned as *MCPError values carrying a JSON-RPC code:
//
//	-32602  Invalid parameters
//	-32603  Internal error
//	-32001  Document not found
//	-32002  Indexing already in progress
//	-32004  Empty query
//
// Search never fails because a provider is down: the retriever degrades to
// keyword ranking and reports source "keyword".
package mcp
