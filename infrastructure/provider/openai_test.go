package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvecdev/docvec/domain/search"
)

func fastOpenAIConfig(baseURL string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
	}
}

func TestNewOpenAIProvider_MissingAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrMissingAPIKey)
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"object": "list",
			"data": [
				{"object": "embedding", "index": 0, "embedding": [0.5, 0.25]},
				{"object": "embedding", "index": 1, "embedding": [0.75, 1.0]}
			],
			"model": "text-embedding-3-large",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`)
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(fastOpenAIConfig(server.URL))
	require.NoError(t, err)

	embedding, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, search.ProviderOpenAI, embedding.Provider())
	assert.Equal(t, "text-embedding-3-large", embedding.Model())
	require.Len(t, embedding.Vectors(), 2)
	assert.InDelta(t, 0.5, embedding.Vectors()[0][0], 0.0001)
	assert.InDelta(t, 1.0, embedding.Vectors()[1][1], 0.0001)
}

func TestOpenAIProvider_EmbedEmptyInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("blank input must not reach the network")
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(fastOpenAIConfig(server.URL))
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrEmptyInput)
}

func TestOpenAIProvider_ChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "[]"}, "finish_reason": "stop"}
			]
		}`)
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(fastOpenAIConfig(server.URL))
	require.NoError(t, err)

	req := NewChatCompletionRequest([]Message{
		SystemMessage("extract snippets"),
		UserMessage("# README"),
	}).WithMaxTokens(100)

	resp, err := p.ChatCompletion(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "[]", resp.Content())
	assert.Equal(t, "stop", resp.FinishReason())
}

func TestOpenAIProvider_Identity(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, search.ProviderOpenAI, p.Provider())
	assert.Equal(t, "text-embedding-3-large", p.Model())
}
