package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/docvecdev/docvec/domain/search"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements embedding using the Google Generative Language
// API. There is no official Go SDK dependency here; the REST surface is
// small enough that a plain HTTP client covers it.
type GeminiProvider struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	embeddingModel string
	maxRetries     int
	initialDelay   time.Duration
	backoffFactor  float64
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	HTTPClient     *http.Client
	Timeout        time.Duration
	MaxRetries     int
	InitialDelay   time.Duration
	BackoffFactor  float64
}

// NewGeminiProvider creates a provider from configuration. A missing API key
// fails here rather than on the first network call.
func NewGeminiProvider(cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is not set", search.ErrMissingAPIKey)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiBaseURL
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "gemini-embedding-001"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}

	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}

	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = 2.0
	}

	return &GeminiProvider{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		embeddingModel: embeddingModel,
		maxRetries:     maxRetries,
		initialDelay:   initialDelay,
		backoffFactor:  backoffFactor,
	}, nil
}

// Provider identifies the embedding provider family.
func (p *GeminiProvider) Provider() search.Provider {
	return search.ProviderGemini
}

// Model returns the embedding model name.
func (p *GeminiProvider) Model() string {
	return p.embeddingModel
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiEmbedding struct {
	Values []float64 `json:"values"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Embed generates embeddings for the given texts in a single batch call.
func (p *GeminiProvider) Embed(ctx context.Context, texts []string) (search.Embedding, error) {
	if err := validateTexts(texts); err != nil {
		return search.Embedding{}, err
	}

	requests := make([]geminiEmbedRequest, len(texts))
	for i, text := range texts {
		requests[i] = geminiEmbedRequest{
			Model:   "models/" + p.embeddingModel,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		}
	}

	body, err := json.Marshal(geminiBatchEmbedRequest{Requests: requests})
	if err != nil {
		return search.Embedding{}, fmt.Errorf("failed to encode batch embed request: %w", err)
	}

	var resp geminiBatchEmbedResponse
	err = p.withRetry(ctx, func() error {
		parsed, callErr := p.batchEmbedContents(ctx, body)
		if callErr != nil {
			return callErr
		}
		if len(parsed.Embeddings) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(parsed.Embeddings), len(texts))
		}
		resp = parsed
		return nil
	})

	if err != nil {
		return search.Embedding{}, p.wrapError("embedding", err)
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = make([]float64, len(emb.Values))
		copy(vectors[i], emb.Values)
	}

	return search.NewEmbedding(vectors, search.ProviderGemini, p.embeddingModel), nil
}

// batchEmbedContents performs one batchEmbedContents HTTP call.
func (p *GeminiProvider) batchEmbedContents(ctx context.Context, body []byte) (geminiBatchEmbedResponse, error) {
	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", p.baseURL, p.embeddingModel)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return geminiBatchEmbedResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return geminiBatchEmbedResponse{}, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return geminiBatchEmbedResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr geminiErrorResponse
		message := string(respBody)
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return geminiBatchEmbedResponse{}, &geminiAPIError{statusCode: httpResp.StatusCode, message: message}
	}

	var parsed geminiBatchEmbedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return geminiBatchEmbedResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return parsed, nil
}

// geminiAPIError carries the HTTP status of a failed API call so the retry
// loop can distinguish transient from permanent failures.
type geminiAPIError struct {
	statusCode int
	message    string
}

func (e *geminiAPIError) Error() string {
	return fmt.Sprintf("gemini API error (status %d): %s", e.statusCode, e.message)
}

// withRetry executes the function with exponential backoff retry.
func (p *GeminiProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func (p *GeminiProvider) isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *geminiAPIError
	if errors.As(err, &apiErr) {
		switch apiErr.statusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// wrapError wraps a Gemini error into a ProviderError.
func (p *GeminiProvider) wrapError(operation string, err error) error {
	var apiErr *geminiAPIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.statusCode, apiErr.message, err)
	}
	return NewProviderError(operation, 0, err.Error(), err)
}

var _ search.Embedder = (*GeminiProvider)(nil)
