// Package config loads, validates and persists the .recall.yml
// configuration, layering RECALL_* environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultFileName is where Load looks when no path is given.
const DefaultFileName = ".recall.yml"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (RECALL_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: RECALL_EMBEDDING_MODEL -> embedding_model.
	if err := k.Load(env.Provider("RECALL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RECALL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.EmbeddingDimensions == 0 {
		cfg.EmbeddingDimensions = DimensionsFor(cfg.EmbeddingModel)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized embedding provider values.
var validProviders = map[ProviderType]bool{
	ProviderOllama: true,
	ProviderOpenAI: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.EmbeddingProvider == "" {
		return fmt.Errorf("embedding_provider is required")
	}
	if !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: must be one of ollama, openai", c.EmbeddingProvider)
	}

	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}

	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding_dimensions is required for model %q; it is not a well-known model", c.EmbeddingModel)
	}

	if c.EmbeddingProvider == ProviderOllama && c.EmbeddingURL == "" {
		return fmt.Errorf("embedding_url is required for the ollama provider")
	}

	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive")
	}

	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score must be between 0 and 1")
	}

	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive")
	}

	if c.MaxFiles < 0 {
		return fmt.Errorf("max_files must be non-negative")
	}

	return nil
}

// ResolvedDataDir returns the data directory, defaulting to ~/.recall.
func (c *Config) ResolvedDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".recall"), nil
}

// IndexDir returns the vector index directory for a project.
func (c *Config) IndexDir(projectID string) (string, error) {
	dataDir, err := c.ResolvedDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "indexes", sanitizeProjectID(projectID)), nil
}

// RegistryPath returns the location of the shared index registry.
func (c *Config) RegistryPath() (string, error) {
	dataDir, err := c.ResolvedDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "registry.csv"), nil
}

// RetrievalTimeout returns the configured retrieval budget.
func (c *Config) RetrievalTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// sanitizeProjectID flattens a project identifier (usually an absolute
// path) into a single directory name.
func sanitizeProjectID(id string) string {
	id = strings.Trim(filepath.ToSlash(id), "/")
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	out := replacer.Replace(id)
	if out == "" {
		return "default"
	}
	return out
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return ""
}
