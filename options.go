package docvec

import (
	"log/slog"

	"github.com/docvecdev/docvec/domain/search"
	domainservice "github.com/docvecdev/docvec/domain/service"
	"github.com/docvecdev/docvec/infrastructure/provider"
)

// clientConfig holds options applied during New.
type clientConfig struct {
	databaseURL   string
	dataDir       string
	cacheDir      string
	githubToken   string
	openAIConfig  *provider.OpenAIConfig
	geminiConfig  *provider.GeminiConfig
	embedder      search.Embedder
	generator     provider.TextGenerator
	fetcher       domainservice.Fetcher
	preferGemini  bool
	logger        *slog.Logger
}

func newClientConfig() *clientConfig {
	return &clientConfig{}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithSQLite stores data in a SQLite database at the given path.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.databaseURL = "sqlite:///" + path
	}
}

// WithDatabaseURL connects to the database at the given URL
// (sqlite:///path or postgresql://...).
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.databaseURL = url
	}
}

// WithOpenAI embeds and extracts snippets using the OpenAI API.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.openAIConfig = &provider.OpenAIConfig{APIKey: apiKey}
	}
}

// WithOpenAIConfig embeds and extracts snippets using a fully configured
// OpenAI provider.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.openAIConfig = &cfg
	}
}

// WithGemini embeds using the Google Generative Language API. Snippet
// extraction still needs an OpenAI key or a custom text generator.
func WithGemini(apiKey string) Option {
	return func(c *clientConfig) {
		c.geminiConfig = &provider.GeminiConfig{APIKey: apiKey}
		c.preferGemini = true
	}
}

// WithGeminiConfig embeds using a fully configured Gemini provider.
func WithGeminiConfig(cfg provider.GeminiConfig) Option {
	return func(c *clientConfig) {
		c.geminiConfig = &cfg
		c.preferGemini = true
	}
}

// WithEmbedder uses a custom embedder instead of a built-in provider.
func WithEmbedder(e search.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithTextGenerator uses a custom text generator for snippet extraction.
func WithTextGenerator(g provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithFetcher uses a custom documentation fetcher instead of the GitHub
// REST client.
func WithFetcher(f domainservice.Fetcher) Option {
	return func(c *clientConfig) {
		c.fetcher = f
	}
}

// WithGitHubToken authenticates GitHub API requests, raising the rate limit.
func WithGitHubToken(token string) Option {
	return func(c *clientConfig) {
		c.githubToken = token
	}
}

// WithDataDir sets the directory for the default database file.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithEmbeddingCache caches embedding API responses on disk under dir, so
// re-indexing an unchanged library skips the paid calls.
func WithEmbeddingCache(dir string) Option {
	return func(c *clientConfig) {
		c.cacheDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
