// Package mcp exposes the retrieval backend over the Model Context
// Protocol, so MCP-capable assistants can query and index projects.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/recall-dev/recall/internal/embeddings"
	"github.com/recall-dev/recall/internal/pipeline"
	"github.com/recall-dev/recall/internal/registry"
	"github.com/recall-dev/recall/internal/retrieval"
	"github.com/recall-dev/recall/internal/vectordb"
	"github.com/recall-dev/recall/internal/walker"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes retrieval and indexing tools.
type Server struct {
	orchestrator *retrieval.Orchestrator
	store        *vectordb.Store
	embedder     embeddings.Embedder
	pipeline     *pipeline.Pipeline
	registry     *registry.Registry
	walkConfig   walker.Config
	projectID    string
	logger       *slog.Logger
	mcp          *server.MCPServer
}

// Deps carries everything the server's tools operate on.
type Deps struct {
	Orchestrator *retrieval.Orchestrator
	Store        *vectordb.Store
	Embedder     embeddings.Embedder
	Pipeline     *pipeline.Pipeline
	Registry     *registry.Registry
	WalkConfig   walker.Config
	ProjectID    string
	Logger       *slog.Logger
}

// NewServer creates an MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orchestrator: deps.Orchestrator,
		store:        deps.Store,
		embedder:     deps.Embedder,
		pipeline:     deps.Pipeline,
		registry:     deps.Registry,
		walkConfig:   deps.WalkConfig,
		projectID:    deps.ProjectID,
		logger:       logger,
	}

	s.mcp = server.NewMCPServer(
		"recall",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(retrieveContextTool, s.handleRetrieveContext)
	s.mcp.AddTool(searchIndexTool, s.handleSearchIndex)
	s.mcp.AddTool(indexProjectTool, s.handleIndexProject)
	s.mcp.AddTool(indexStatusTool, s.handleIndexStatus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
