// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8080
	DefaultLogLevel         = "INFO"
	DefaultSearchLimit      = 8
	DefaultProvider         = "openai"
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultGeminiModel      = "gemini-embedding-001"
	DefaultExtractionModel  = "gpt-4o-mini"
	DefaultRequestTimeout   = 60 * time.Second
	DefaultProviderRetries  = 5
	DefaultProviderDelay    = 2 * time.Second
	DefaultBackoffFactor    = 2.0
	defaultDataDirName      = ".docvec"
	defaultDatabaseFileName = "docvec.db"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// AppConfig is the immutable application configuration.
type AppConfig struct {
	host            string
	port            int
	dataDir         string
	dbURL           string
	logLevel        string
	logFormat       LogFormat
	githubToken     string
	provider        string
	openAIKey       string
	openAIBaseURL   string
	openAIModel     string
	geminiKey       string
	geminiModel     string
	extractionModel string
	searchLimit     int
	cacheDir        string
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:            DefaultHost,
		port:            DefaultPort,
		dataDir:         defaultDataDir(),
		logLevel:        DefaultLogLevel,
		logFormat:       LogFormatPretty,
		provider:        DefaultProvider,
		openAIModel:     DefaultOpenAIModel,
		geminiModel:     DefaultGeminiModel,
		extractionModel: DefaultExtractionModel,
		searchLimit:     DefaultSearchLimit,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirName
	}
	return filepath.Join(home, defaultDataDirName)
}

// Host returns the server host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL, defaulting to an embedded
// SQLite file under the data directory.
func (c AppConfig) DBURL() string {
	if c.dbURL != "" {
		return c.dbURL
	}
	return "sqlite:///" + filepath.Join(c.dataDir, defaultDatabaseFileName)
}

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// GitHubToken returns the GitHub API token (may be empty).
func (c AppConfig) GitHubToken() string { return c.githubToken }

// Provider returns the configured embedding provider name.
func (c AppConfig) Provider() string { return c.provider }

// OpenAIKey returns the OpenAI API key.
func (c AppConfig) OpenAIKey() string { return c.openAIKey }

// OpenAIBaseURL returns an override base URL for the OpenAI API (may be empty).
func (c AppConfig) OpenAIBaseURL() string { return c.openAIBaseURL }

// OpenAIModel returns the OpenAI embedding model.
func (c AppConfig) OpenAIModel() string { return c.openAIModel }

// GeminiKey returns the Gemini API key.
func (c AppConfig) GeminiKey() string { return c.geminiKey }

// GeminiModel returns the Gemini embedding model.
func (c AppConfig) GeminiModel() string { return c.geminiModel }

// ExtractionModel returns the chat model used for snippet extraction.
func (c AppConfig) ExtractionModel() string { return c.extractionModel }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// CacheDir returns the HTTP response cache directory (empty disables caching).
func (c AppConfig) CacheDir() string { return c.cacheDir }

// EnsureDataDir creates the data directory if it does not exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// WithGitHubToken returns a copy with the given token.
func (c AppConfig) WithGitHubToken(token string) AppConfig {
	c.githubToken = token
	return c
}

// WithProvider returns a copy with the given provider name.
func (c AppConfig) WithProvider(provider string) AppConfig {
	c.provider = provider
	return c
}
