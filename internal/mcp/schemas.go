package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docground/internal/retriever"
)

// indexDocumentTool returns the tool definition for index_document
func indexDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_document",
		Description: "Index or re-index a text document so it can be retrieved and cited",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Stable document ID; generated when omitted",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Document title, used in citations",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full document text",
				},
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "Partition key such as an organization ID; empty means global",
				},
				"link": map[string]interface{}{
					"type":        "string",
					"description": "Source link shown next to citations",
				},
			},
			Required: []string{"title", "content"},
		},
	}
}

// indexDocumentsTool returns the tool definition for index_documents
func indexDocumentsTool() mcp.Tool {
	document := indexDocumentTool().InputSchema
	return mcp.Tool{
		Name:        "index_documents",
		Description: "Index many documents concurrently; failures are reported per document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"documents": map[string]interface{}{
					"type":        "array",
					"description": "Documents to index",
					"items": map[string]interface{}{
						"type":       "object",
						"properties": document.Properties,
						"required":   document.Required,
					},
				},
			},
			Required: []string{"documents"},
		},
	}
}

// deleteDocumentTool returns the tool definition for delete_document
func deleteDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_document",
		Description: "Remove a document and its chunks from the index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the document to delete",
				},
			},
			Required: []string{"id"},
		},
	}
}

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Retrieve the passages most relevant to a question, with citations and a grounding context block",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question",
				},
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "Only search documents in this scope",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     retriever.DefaultLimit,
					"minimum":     1,
					"maximum":     retriever.MaxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics and health",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "Restrict counts to one scope; omit for all",
				},
			},
		},
	}
}
