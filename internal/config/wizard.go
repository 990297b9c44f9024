package config

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
)

// projectTypePatterns maps marker files to human-readable project types
// and a recommended source glob, used to pre-fill the wizard.
var projectTypePatterns = map[string]struct {
	Name   string
	Source string
}{
	"go.mod":           {Name: "Go", Source: "**/*.go"},
	"package.json":     {Name: "Node.js/TypeScript", Source: "**/*.{js,ts,jsx,tsx}"},
	"requirements.txt": {Name: "Python", Source: "**/*.py"},
	"pyproject.toml":   {Name: "Python", Source: "**/*.py"},
	"Cargo.toml":       {Name: "Rust", Source: "**/*.rs"},
	"pom.xml":          {Name: "Java", Source: "**/*.java"},
	"build.gradle":     {Name: "Java/Kotlin", Source: "**/*.{java,kt}"},
	"Gemfile":          {Name: "Ruby", Source: "**/*.rb"},
	"composer.json":    {Name: "PHP", Source: "**/*.php"},
}

// detectProjectType checks the current directory for well-known project markers.
func detectProjectType() (name string, source string) {
	for marker, info := range projectTypePatterns {
		matches, _ := filepath.Glob(marker)
		if len(matches) > 0 {
			return info.Name, info.Source
		}
	}
	return "", ""
}

// RunWizard walks the user through an initial configuration and
// returns it. The result still needs Save to be persisted.
func RunWizard() (*Config, error) {
	cfg := DefaultConfig()

	if name, source := detectProjectType(); name != "" {
		fmt.Printf("Detected a %s project.\n", name)
		cfg.Sources = []string{source}
	}

	providerPrompt := promptui.Select{
		Label: "Embedding provider",
		Items: []string{string(ProviderOllama), string(ProviderOpenAI)},
	}
	_, provider, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard aborted: %w", err)
	}
	cfg.EmbeddingProvider = ProviderType(provider)

	defaultModel := "nomic-embed-text"
	if cfg.EmbeddingProvider == ProviderOpenAI {
		defaultModel = "text-embedding-3-small"
		cfg.EmbeddingURL = ""
	}
	modelPrompt := promptui.Prompt{
		Label:   "Embedding model",
		Default: defaultModel,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard aborted: %w", err)
	}
	cfg.EmbeddingModel = model
	cfg.EmbeddingDimensions = DimensionsFor(model)

	if cfg.EmbeddingDimensions == 0 {
		dimsPrompt := promptui.Prompt{
			Label: "Embedding dimensions",
			Validate: func(s string) error {
				n, err := strconv.Atoi(s)
				if err != nil || n <= 0 {
					return fmt.Errorf("enter a positive integer")
				}
				return nil
			},
		}
		dims, err := dimsPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("wizard aborted: %w", err)
		}
		cfg.EmbeddingDimensions, _ = strconv.Atoi(dims)
	}

	if cfg.EmbeddingProvider == ProviderOllama {
		urlPrompt := promptui.Prompt{
			Label:   "Ollama URL",
			Default: cfg.EmbeddingURL,
		}
		url, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("wizard aborted: %w", err)
		}
		cfg.EmbeddingURL = url
	}

	return cfg, nil
}
