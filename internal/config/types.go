package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderOpenAI ProviderType = "openai"
)

// Config is the top-level recall configuration, corresponding to
// .recall.yml. Every field can be overridden through a RECALL_*
// environment variable with the same name uppercased.
type Config struct {
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	EmbeddingProvider   ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingURL        string       `yaml:"embedding_url" koanf:"embedding_url"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`
	AuthUser            string       `yaml:"auth_user" koanf:"auth_user"`
	AuthPassword        string       `yaml:"auth_password" koanf:"auth_password"`

	RAGEnabled       bool `yaml:"rag_enabled" koanf:"rag_enabled"`
	WebSearchEnabled bool `yaml:"web_search_enabled" koanf:"web_search_enabled"`

	Sources     []string `yaml:"sources" koanf:"sources"`
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	MaxFiles    int      `yaml:"max_files" koanf:"max_files"`
	MaxFileSize int64    `yaml:"max_file_size" koanf:"max_file_size"`

	MaxResults int     `yaml:"max_results" koanf:"max_results"`
	MinScore   float64 `yaml:"min_score" koanf:"min_score"`
	TimeoutMS  int     `yaml:"timeout_ms" koanf:"timeout_ms"`

	LogFile  string `yaml:"log_file" koanf:"log_file"`
	LogLevel string `yaml:"log_level" koanf:"log_level"`
}
