// Package docvec indexes library documentation as embedding-searchable code
// snippets for AI coding assistants.
//
// Basic usage:
//
//	client, err := docvec.New(
//	    docvec.WithSQLite(".docvec/docvec.db"),
//	    docvec.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Index a library's documentation
//	summary, err := client.Ingest.Add(ctx, "gin-gonic/gin")
//
//	// Retrieve snippets by topic
//	results, err := client.Search.Query(ctx, "gin-gonic/gin", "middleware error handling",
//	    service.WithLimit(10),
//	)
//
//	for _, scored := range results {
//	    fmt.Println(scored.Snippet().Title(), scored.Similarity())
//	}
package docvec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/docvecdev/docvec/application/service"
	"github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/infrastructure/extractor"
	"github.com/docvecdev/docvec/infrastructure/github"
	"github.com/docvecdev/docvec/infrastructure/persistence"
	"github.com/docvecdev/docvec/infrastructure/provider"
	infrasearch "github.com/docvecdev/docvec/infrastructure/search"
	"github.com/docvecdev/docvec/internal/config"
	"github.com/docvecdev/docvec/internal/database"
)

// ErrNoIngest indicates indexing was requested but no text-generation
// provider is available for snippet extraction.
var ErrNoIngest = errors.New("snippet extraction requires an OpenAI key or a custom text generator")

// Client is the main entry point for the docvec library.
//
// Access resources via struct fields:
//
//	client.Ingest.Add(ctx, "owner/repo")
//	client.Search.Query(ctx, "owner/repo", "topic")
//	client.Libraries.List(ctx)
type Client struct {
	// Ingest indexes libraries. Nil when no text generator is configured;
	// retrieval still works against previously indexed data.
	Ingest *service.Ingest

	Search    *service.Retrieval
	Libraries *service.Libraries

	db       database.Database
	embedder search.Embedder
	logger   *slog.Logger
	closed   atomic.Bool
}

// New creates a new Client with the given options. An embedding provider is
// needed for queries and indexing; a text generator only for indexing.
// Library listing and removal work with neither.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var cachingClient *http.Client
	if cfg.cacheDir != "" {
		cachingClient = &http.Client{
			Transport: provider.NewCachingTransport(cfg.cacheDir, nil),
		}
	}

	// A nil embedder is allowed: listing and removal work without one, and
	// the retrieval service rejects queries itself.
	embedder, generator, err := buildProviders(cfg, cachingClient)
	if err != nil {
		return nil, err
	}

	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	vectorStore := infrasearch.NewVectorStore(db, logger)
	libraryStore := persistence.NewLibraryStore(db)
	snippetStore := persistence.NewSnippetStore(db, vectorStore, logger)

	fetcher := cfg.fetcher
	if fetcher == nil {
		var ghOpts []github.Option
		if cfg.githubToken != "" {
			ghOpts = append(ghOpts, github.WithToken(cfg.githubToken))
		}
		fetcher = github.NewClient(ghOpts...)
	}

	client := &Client{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}

	client.Search = service.NewRetrieval(embedder, snippetStore, libraryStore, logger)
	client.Libraries = service.NewLibraries(libraryStore, snippetStore, logger)

	if generator != nil {
		llmExtractor := extractor.NewLLMExtractor(generator, logger)
		client.Ingest = service.NewIngest(fetcher, llmExtractor, embedder, snippetStore, libraryStore, logger)
	}

	return client, nil
}

// NewFromConfig creates a Client wired from application configuration.
func NewFromConfig(cfg config.AppConfig, logger *slog.Logger) (*Client, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	opts := []Option{
		WithDatabaseURL(cfg.DBURL()),
		WithDataDir(cfg.DataDir()),
		WithLogger(logger),
	}

	if cfg.GitHubToken() != "" {
		opts = append(opts, WithGitHubToken(cfg.GitHubToken()))
	}
	if cfg.CacheDir() != "" {
		opts = append(opts, WithEmbeddingCache(cfg.CacheDir()))
	}

	if cfg.OpenAIKey() != "" {
		opts = append(opts, WithOpenAIConfig(provider.OpenAIConfig{
			APIKey:         cfg.OpenAIKey(),
			BaseURL:        cfg.OpenAIBaseURL(),
			ChatModel:      cfg.ExtractionModel(),
			EmbeddingModel: cfg.OpenAIModel(),
			Timeout:        config.DefaultRequestTimeout,
		}))
	}
	if cfg.GeminiKey() != "" && cfg.Provider() == "gemini" {
		opts = append(opts, WithGeminiConfig(provider.GeminiConfig{
			APIKey:         cfg.GeminiKey(),
			EmbeddingModel: cfg.GeminiModel(),
			Timeout:        config.DefaultRequestTimeout,
		}))
	}

	return New(opts...)
}

// buildProviders constructs the embedder and text generator from options.
// Gemini, when configured, wins the embedder role; OpenAI always provides
// text generation because Gemini's surface here is embedding-only.
func buildProviders(cfg *clientConfig, cachingClient *http.Client) (search.Embedder, provider.TextGenerator, error) {
	embedder := cfg.embedder
	generator := cfg.generator

	var openAI *provider.OpenAIProvider
	if cfg.openAIConfig != nil {
		openAICfg := *cfg.openAIConfig
		if cachingClient != nil && openAICfg.HTTPClient == nil {
			openAICfg.HTTPClient = cachingClient
		}
		var err error
		openAI, err = provider.NewOpenAIProvider(openAICfg)
		if err != nil {
			return nil, nil, err
		}
	}

	if embedder == nil && cfg.geminiConfig != nil && cfg.preferGemini {
		geminiCfg := *cfg.geminiConfig
		if cachingClient != nil && geminiCfg.HTTPClient == nil {
			geminiCfg.HTTPClient = cachingClient
		}
		gemini, err := provider.NewGeminiProvider(geminiCfg)
		if err != nil {
			return nil, nil, err
		}
		embedder = gemini
	}

	if embedder == nil && openAI != nil {
		embedder = openAI
	}
	if generator == nil && openAI != nil {
		generator = openAI
	}

	return embedder, generator, nil
}

// buildDatabaseURL resolves the database URL, defaulting to a SQLite file
// under the data directory.
func buildDatabaseURL(cfg *clientConfig) (string, error) {
	if cfg.databaseURL != "" {
		return cfg.databaseURL, nil
	}

	dataDir := cfg.dataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docvec")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("prepare data dir: %w", err)
	}

	return "sqlite:///" + filepath.Join(dataDir, "docvec.db"), nil
}

// Embedder returns the configured embedding provider.
func (c *Client) Embedder() search.Embedder {
	return c.embedder
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// DB returns the underlying database, for tests and migrations.
func (c *Client) DB() database.Database {
	return c.db
}

// Close releases the database. The client cannot be used afterwards.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.db.Close()
}
