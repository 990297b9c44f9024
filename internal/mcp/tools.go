package mcp

import "github.com/mark3labs/mcp-go/mcp"

// retrieveContextTool defines the retrieve_context MCP tool.
var retrieveContextTool = mcp.NewTool("retrieve_context",
	mcp.WithDescription("Retrieve deduplicated context snippets for a query from the project index, external search and the workspace."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language query to retrieve context for"),
	),
)

// searchIndexTool defines the search_index MCP tool.
var searchIndexTool = mcp.NewTool("search_index",
	mcp.WithDescription("Search the project's vector index directly. Returns matching chunks with file paths and similarity scores."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithNumber("min_score",
		mcp.Description("Minimum similarity score between 0 and 1 (default 0.4)"),
	),
)

// indexProjectTool defines the index_project MCP tool.
var indexProjectTool = mcp.NewTool("index_project",
	mcp.WithDescription("Walk the project, queue every eligible file and index the whole queue synchronously."),
)

// indexStatusTool defines the index_status MCP tool.
var indexStatusTool = mcp.NewTool("index_status",
	mcp.WithDescription("Report whether the project index is current, how many chunks it holds and how many files are queued."),
)
