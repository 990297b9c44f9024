package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/recall-dev/recall/internal/embeddings"
	"github.com/recall-dev/recall/internal/retrieval"
	"github.com/recall-dev/recall/internal/vectordb"
	"github.com/recall-dev/recall/internal/walker"
)

// handleRetrieveContext runs the full multi-source retrieval for a query.
func (s *Server) handleRetrieveContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	snippets := s.orchestrator.Retrieve(ctx, query)
	if len(snippets) == 0 {
		return mcp.NewToolResultText("No relevant context found. The project may not be indexed yet; run the index_project tool first."), nil
	}

	return mcp.NewToolResultText(formatSnippets(snippets)), nil
}

// handleSearchIndex queries the vector index directly, bypassing the
// other retrieval sources.
func (s *Server) handleSearchIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	minScore := request.GetFloat("min_score", 0.4)

	vec, err := embeddings.EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding query failed: %v", err)), nil
	}

	matches := s.store.Search(ctx, vectordb.SearchQuery{
		Vector:     vec,
		MaxResults: limit,
		MinScore:   minScore,
	})
	if len(matches) == 0 {
		return mcp.NewToolResultText("No results found. The project may not be indexed yet; run the index_project tool first."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d results:\n\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(&sb, "## Result %d (score %.2f)\n", i+1, m.Score)
		if path := m.Metadata[vectordb.MetaPath]; path != "" {
			fmt.Fprintf(&sb, "File: %s\n", path)
		}
		if lang := m.Metadata[vectordb.MetaLanguage]; lang != "" {
			fmt.Fprintf(&sb, "Language: %s\n", lang)
		}
		fmt.Fprintf(&sb, "\n%s\n\n", m.Text)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleIndexProject walks the project and indexes every eligible file
// synchronously. Only one indexation may run per project at a time.
func (s *Server) handleIndexProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.registry.IndexationIsProcessing(s.projectID) {
		return mcp.NewToolResultError("an indexation is already running for this project"), nil
	}

	s.registry.MarkAsCurrentIndexation(s.projectID)
	defer s.registry.RemoveFromCurrentIndexation(s.projectID)

	files, limitReached, err := walker.Walk(s.walkConfig)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("walking project failed: %v", err)), nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	added := s.pipeline.EnqueueAll(paths)

	s.pipeline.Flush(ctx, func() bool { return ctx.Err() != nil }, nil)

	if ctx.Err() != nil {
		return mcp.NewToolResultError("indexing was cancelled before the queue drained"), nil
	}
	if err := s.registry.MarkAsIndexed(s.projectID); err != nil {
		s.logger.Warn("recording indexation failed", "err", err)
	}

	msg := fmt.Sprintf("Indexed %d files (%d queued, %d chunks in the index).",
		added, len(files), s.store.Count())
	if limitReached {
		msg += " The file limit was reached; some files were skipped."
	}
	return mcp.NewToolResultText(msg), nil
}

// handleIndexStatus reports the index and queue state for the project.
func (s *Server) handleIndexStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project: %s\n", s.projectID)
	fmt.Fprintf(&sb, "Index current: %v\n", s.registry.IsIndexed(s.projectID))
	fmt.Fprintf(&sb, "Indexation running: %v\n", s.registry.IndexationIsProcessing(s.projectID))
	fmt.Fprintf(&sb, "Chunks in index: %d\n", s.store.Count())
	fmt.Fprintf(&sb, "Files queued: %d\n", s.pipeline.QueueLen())
	fmt.Fprintf(&sb, "Files indexed this session: %d\n", s.pipeline.TotalIndexed())
	return mcp.NewToolResultText(sb.String()), nil
}

// formatSnippets renders retrieval output for the model.
func formatSnippets(snippets []retrieval.Snippet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d context snippets:\n\n", len(snippets))
	for i, s := range snippets {
		fmt.Fprintf(&sb, "## Snippet %d (%s)\n", i+1, s.Origin)
		if s.Path != "" {
			fmt.Fprintf(&sb, "File: %s\n", s.Path)
		}
		if s.Score > 0 {
			fmt.Fprintf(&sb, "Score: %.2f\n", s.Score)
		}
		fmt.Fprintf(&sb, "\n%s\n\n", s.Text)
	}
	return sb.String()
}
