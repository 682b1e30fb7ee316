package config

import (
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Field names map to
// environment variables with the DOCVEC_ prefix (e.g. DOCVEC_DB_URL); the
// provider API keys also fall back to their conventional unprefixed names.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: DOCVEC_HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: DOCVEC_PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DOCVEC_DATA_DIR
	// Default: ~/.docvec
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DOCVEC_DB_URL
	// Default: sqlite:///{data_dir}/docvec.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: DOCVEC_LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: DOCVEC_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// GitHubToken authenticates GitHub API requests (optional).
	// Env: DOCVEC_GITHUB_TOKEN
	GitHubToken string `envconfig:"GITHUB_TOKEN"`

	// Provider selects the embedding provider (openai or gemini).
	// Env: DOCVEC_PROVIDER (default: openai)
	Provider string `envconfig:"PROVIDER" default:"openai"`

	// OpenAIKey is the OpenAI API key.
	// Env: DOCVEC_OPENAI_API_KEY
	OpenAIKey string `envconfig:"OPENAI_API_KEY"`

	// OpenAIBaseURL overrides the OpenAI API base URL (optional).
	// Env: DOCVEC_OPENAI_BASE_URL
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// OpenAIModel is the OpenAI embedding model.
	// Env: DOCVEC_OPENAI_MODEL (default: text-embedding-3-small)
	OpenAIModel string `envconfig:"OPENAI_MODEL" default:"text-embedding-3-small"`

	// GeminiKey is the Gemini API key.
	// Env: DOCVEC_GEMINI_API_KEY
	GeminiKey string `envconfig:"GEMINI_API_KEY"`

	// GeminiModel is the Gemini embedding model.
	// Env: DOCVEC_GEMINI_MODEL (default: gemini-embedding-001)
	GeminiModel string `envconfig:"GEMINI_MODEL" default:"gemini-embedding-001"`

	// ExtractionModel is the chat model used for snippet extraction.
	// Env: DOCVEC_EXTRACTION_MODEL (default: gpt-4o-mini)
	ExtractionModel string `envconfig:"EXTRACTION_MODEL" default:"gpt-4o-mini"`

	// SearchLimit is the default search result limit.
	// Env: DOCVEC_SEARCH_LIMIT (default: 8)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"8"`

	// CacheDir enables disk caching of provider HTTP responses when set.
	// Env: DOCVEC_CACHE_DIR
	CacheDir string `envconfig:"CACHE_DIR"`
}

// envPrefix is the prefix for all environment variables.
const envPrefix = "DOCVEC"

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg.withKeyFallbacks(), nil
}

// withKeyFallbacks fills provider credentials from their conventional
// unprefixed environment variables when the DOCVEC_ forms are unset.
func (e EnvConfig) withKeyFallbacks() EnvConfig {
	if e.OpenAIKey == "" {
		e.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if e.GeminiKey == "" {
		e.GeminiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if e.GitHubToken == "" {
		e.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg.host = e.Host
	}
	if e.Port != 0 {
		cfg.port = e.Port
	}
	if e.DataDir != "" {
		cfg.dataDir = e.DataDir
	}
	if e.DBURL != "" {
		cfg.dbURL = e.DBURL
	}
	if e.LogLevel != "" {
		cfg.logLevel = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.logFormat = parseLogFormat(e.LogFormat)
	}
	if e.Provider != "" {
		cfg.provider = strings.ToLower(e.Provider)
	}
	if e.OpenAIModel != "" {
		cfg.openAIModel = e.OpenAIModel
	}
	if e.GeminiModel != "" {
		cfg.geminiModel = e.GeminiModel
	}
	if e.ExtractionModel != "" {
		cfg.extractionModel = e.ExtractionModel
	}
	if e.SearchLimit > 0 {
		cfg.searchLimit = e.SearchLimit
	}

	cfg.githubToken = e.GitHubToken
	cfg.openAIKey = e.OpenAIKey
	cfg.openAIBaseURL = e.OpenAIBaseURL
	cfg.geminiKey = e.GeminiKey
	cfg.cacheDir = e.CacheDir

	return cfg
}

func parseLogFormat(s string) LogFormat {
	if strings.EqualFold(s, string(LogFormatJSON)) {
		return LogFormatJSON
	}
	return LogFormatPretty
}
