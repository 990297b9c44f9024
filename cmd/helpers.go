package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/recall-dev/recall/internal/config"
	"github.com/recall-dev/recall/internal/embeddings"
	"github.com/recall-dev/recall/internal/pipeline"
	"github.com/recall-dev/recall/internal/registry"
	"github.com/recall-dev/recall/internal/retrieval"
	"github.com/recall-dev/recall/internal/vectordb"
	"github.com/recall-dev/recall/internal/walker"
	"github.com/recall-dev/recall/internal/websearch"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `recall init` to create a config file", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newEmbedder creates an embeddings.Embedder from the config, wrapped
// in the LRU cache so repeated texts are embedded once.
func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	var inner embeddings.Embedder

	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		inner = embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel))
	case config.ProviderOllama:
		auth := embeddings.BasicAuth{User: cfg.AuthUser, Password: cfg.AuthPassword}
		inner = embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimensions, cfg.EmbeddingURL, auth)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}

	return embeddings.NewCachingEmbedder(inner), nil
}

// backend bundles everything the commands operate on for one project.
type backend struct {
	cfg       *config.Config
	logger    *slog.Logger
	closeLog  func() error
	projectID string
	walkCfg   walker.Config

	store     *vectordb.Store
	registry  *registry.Registry
	embedder  embeddings.Embedder
	pipeline  *pipeline.Pipeline
	workspace *retrieval.Workspace
}

// openBackend wires the store, registry and pipeline for the project
// rooted at the current working directory.
func openBackend() (*backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	projectDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	projectID, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	indexDir, err := cfg.IndexDir(projectID)
	if err != nil {
		return nil, err
	}
	store, err := vectordb.Open(indexDir, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	registryPath, err := cfg.RegistryPath()
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(registryPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening index registry: %w", err)
	}

	store.SetOnCorruption(corruptionRecorder(reg, projectID, logger))

	pipe := pipeline.New(store, embedder, logger)

	return &backend{
		cfg:       cfg,
		logger:    logger,
		closeLog:  closeLog,
		projectID: projectID,
		walkCfg: walker.Config{
			RootDir:     projectDir,
			Sources:     cfg.Sources,
			Exclude:     cfg.Exclude,
			MaxFileSize: cfg.MaxFileSize,
			MaxFiles:    cfg.MaxFiles,
		},
		store:     store,
		registry:  reg,
		embedder:  embedder,
		pipeline:  pipe,
		workspace: retrieval.NewWorkspace(),
	}, nil
}

// corruptionRecorder returns the callback the store fires after a
// search-time fault wiped and recreated the index. The project is
// marked corrupted so it stops reading as current; MarkAsIndexed
// clears the flag once a full re-index completes.
func corruptionRecorder(reg *registry.Registry, projectID string, logger *slog.Logger) func() {
	return func() {
		if err := reg.MarkAsCorrupted(projectID); err != nil {
			logger.Warn("recording corrupted index failed", "err", err)
		}
	}
}

// orchestrator builds the retrieval orchestrator over the backend,
// enabling the index and web sources per the config.
func (b *backend) orchestrator(notifier retrieval.Notifier) *retrieval.Orchestrator {
	var store *vectordb.Store
	if b.cfg.RAGEnabled {
		store = b.store
	}
	var web retrieval.Searcher
	if b.cfg.WebSearchEnabled {
		web = websearch.New()
	}
	return retrieval.New(store, b.embedder, web, b.workspace, notifier, b.logger, retrieval.Options{
		MaxResults: b.cfg.MaxResults,
		MinScore:   b.cfg.MinScore,
		Budget:     b.cfg.RetrievalTimeout(),
	})
}

func (b *backend) Close() {
	_ = b.pipeline.Close()
	_ = b.store.Close()
	_ = b.closeLog()
}
