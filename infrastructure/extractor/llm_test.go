package extractor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainservice "github.com/docvecdev/docvec/domain/service"
	"github.com/docvecdev/docvec/infrastructure/provider"
)

// fakeGenerator answers every chat completion with a canned response.
type fakeGenerator struct {
	response string
	err      error
	lastReq  provider.ChatCompletionRequest
}

func (g *fakeGenerator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	g.lastReq = req
	if g.err != nil {
		return provider.ChatCompletionResponse{}, g.err
	}
	return provider.NewChatCompletionResponse(g.response, "stop"), nil
}

func docInput(content string) domainservice.ExtractionInput {
	return domainservice.NewExtractionInput("acme/widgets", "widget docs", "docs/intro.md", content)
}

func TestLLMExtractor_Extract(t *testing.T) {
	gen := &fakeGenerator{response: `[
		{"title": "Connect to the server", "description": "Opens a client.", "language": "Go", "code": "client := widgets.New()"},
		{"title": "Close the client", "description": "", "language": "go", "code": "client.Close()"}
	]`}
	ext := NewLLMExtractor(gen, slog.Default())

	candidates, err := ext.Extract(context.Background(), docInput("# Intro\n\nsome docs"))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Connect to the server", candidates[0].Title())
	assert.Equal(t, "Opens a client.", candidates[0].Description())
	assert.Equal(t, "go", candidates[0].Language(), "language tags are lowercased")
	assert.Equal(t, "client := widgets.New()", candidates[0].Code())
}

func TestLLMExtractor_ExtractEmptyContent(t *testing.T) {
	gen := &fakeGenerator{response: `[]`}
	ext := NewLLMExtractor(gen, slog.Default())

	candidates, err := ext.Extract(context.Background(), docInput("   \n\t  "))
	require.NoError(t, err)
	assert.Nil(t, candidates)
	assert.Empty(t, gen.lastReq.Messages(), "blank files must not reach the model")
}

func TestLLMExtractor_ExtractUnwrapsCodeFence(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n[{\"title\": \"t\", \"description\": \"d\", \"language\": \"go\", \"code\": \"c\"}]\n```"}
	ext := NewLLMExtractor(gen, slog.Default())

	candidates, err := ext.Extract(context.Background(), docInput("docs"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "t", candidates[0].Title())
}

func TestLLMExtractor_ExtractStripsThinkingTags(t *testing.T) {
	gen := &fakeGenerator{response: "<think>let me look at the file</think>[{\"title\": \"t\", \"description\": \"\", \"language\": \"go\", \"code\": \"c\"}]"}
	ext := NewLLMExtractor(gen, slog.Default())

	candidates, err := ext.Extract(context.Background(), docInput("docs"))
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestLLMExtractor_ExtractDropsMalformedEntries(t *testing.T) {
	gen := &fakeGenerator{response: `[
		{"title": "", "description": "no title", "language": "go", "code": "x"},
		{"title": "no code", "description": "", "language": "go", "code": "  "},
		{"title": "good", "description": "", "language": "go", "code": "y"}
	]`}
	ext := NewLLMExtractor(gen, slog.Default())

	candidates, err := ext.Extract(context.Background(), docInput("docs"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "good", candidates[0].Title())
}

func TestLLMExtractor_ExtractNonArrayResponse(t *testing.T) {
	gen := &fakeGenerator{response: "I could not find any snippets in this file."}
	ext := NewLLMExtractor(gen, slog.Default())

	candidates, err := ext.Extract(context.Background(), docInput("docs"))
	require.NoError(t, err, "unparseable model output is filtered, not surfaced")
	assert.Empty(t, candidates)
}

func TestLLMExtractor_ExtractGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	ext := NewLLMExtractor(gen, slog.Default())

	_, err := ext.Extract(context.Background(), docInput("docs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs/intro.md")
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no fence", `[{"a": 1}]`, `[{"a": 1}]`},
		{"fence with language tag", "```json\n[1]\n```", "[1]"},
		{"bare fence", "```\n[1]\n```", "[1]"},
		{"fence hugging content", "```[1]```", "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFence(tt.input))
		})
	}
}
