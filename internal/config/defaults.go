package config

// modelDimensions maps well-known embedding models to their vector
// dimensionality, used when the config does not pin one explicitly.
var modelDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"snowflake-arctic-embed": 1024,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// DimensionsFor returns the known dimensionality of model, or 0.
func DimensionsFor(model string) int {
	return modelDimensions[model]
}

// DefaultExcludes are glob patterns excluded from indexing by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"target/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// DefaultConfig returns a Config with sensible defaults: a local
// Ollama embedder, index-backed retrieval enabled, external search off.
func DefaultConfig() *Config {
	return &Config{
		DataDir:             "", // resolved to ~/.recall when blank
		EmbeddingProvider:   ProviderOllama,
		EmbeddingModel:      "nomic-embed-text",
		EmbeddingURL:        "http://localhost:11434",
		EmbeddingDimensions: 0, // inferred from the model when known
		RAGEnabled:          true,
		WebSearchEnabled:    false,
		Exclude:             DefaultExcludes,
		MaxFiles:            10000,
		MaxFileSize:         1024 * 1024,
		MaxResults:          5,
		MinScore:            0.4,
		TimeoutMS:           2000,
		LogLevel:            "info",
	}
}
