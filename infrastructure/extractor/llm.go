// Package extractor provides AI-powered snippet extraction from
// documentation files.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	domainservice "github.com/docvecdev/docvec/domain/service"
	"github.com/docvecdev/docvec/infrastructure/provider"
)

const extractionSystemPrompt = `You extract self-contained code snippets from library documentation.

Given one documentation file, return a JSON array. Each element must have:
- "title": short imperative summary of what the snippet demonstrates
- "description": one or two sentences of context a developer needs
- "language": the language of the code block (lowercase, e.g. "go", "python", "bash")
- "code": the complete snippet, runnable or copy-pasteable as shown

Only extract snippets that demonstrate API usage. Skip badges, tables of
contents, and prose without code. Return [] if the file has nothing usable.
Return ONLY the JSON array, no surrounding text.`

// LLMExtractor uses a TextGenerator to pull code snippets out of
// documentation files.
type LLMExtractor struct {
	generator   provider.TextGenerator
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// NewLLMExtractor creates a new LLMExtractor.
func NewLLMExtractor(generator provider.TextGenerator, log *slog.Logger) *LLMExtractor {
	return &LLMExtractor{
		generator:   generator,
		maxTokens:   4096,
		temperature: 0.2,
		log:         log,
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func (e *LLMExtractor) WithMaxTokens(n int) *LLMExtractor {
	e.maxTokens = n
	return e
}

// WithTemperature sets the temperature for generation.
func (e *LLMExtractor) WithTemperature(t float64) *LLMExtractor {
	e.temperature = t
	return e
}

// extractedSnippet is the wire shape the model is asked to produce.
type extractedSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

// Extract turns one documentation file into snippet candidates. Malformed
// model output is filtered, never surfaced: entries without a title or code
// are dropped, and a response that is not a JSON array at all yields zero
// candidates.
func (e *LLMExtractor) Extract(ctx context.Context, input domainservice.ExtractionInput) ([]domainservice.Candidate, error) {
	if strings.TrimSpace(input.Content()) == "" {
		return nil, nil
	}

	userPrompt := fmt.Sprintf("Library: %s\nDescription: %s\nFile: %s\n\n%s",
		input.LibraryName(), input.Description(), input.Path(), input.Content())

	messages := []provider.Message{
		provider.SystemMessage(extractionSystemPrompt),
		provider.UserMessage(userPrompt),
	}

	chatReq := provider.NewChatCompletionRequest(messages).
		WithMaxTokens(e.maxTokens).
		WithTemperature(e.temperature)

	chatResp, err := e.generator.ChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", input.Path(), err)
	}

	content := cleanThinkingTags(chatResp.Content())
	content = stripCodeFence(content)

	var extracted []extractedSnippet
	if err := json.Unmarshal([]byte(content), &extracted); err != nil {
		e.log.Warn("dropping extraction response: not a JSON array",
			slog.String("path", input.Path()),
			slog.Any("error", err))
		return nil, nil
	}

	candidates := make([]domainservice.Candidate, 0, len(extracted))
	for _, s := range extracted {
		if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Code) == "" {
			e.log.Debug("dropping malformed extraction entry",
				slog.String("path", input.Path()),
				slog.String("title", s.Title))
			continue
		}
		candidates = append(candidates, domainservice.NewCandidate(
			strings.TrimSpace(s.Title),
			strings.TrimSpace(s.Description),
			strings.ToLower(strings.TrimSpace(s.Language)),
			s.Code,
		))
	}

	return candidates, nil
}

// stripCodeFence unwraps a response the model wrapped in a markdown fence
// despite instructions.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.Index(trimmed, "\n"); newline != -1 {
		first := trimmed[:newline]
		// Drop a language tag like "json" on the fence line.
		if !strings.ContainsAny(first, "[{") {
			trimmed = trimmed[newline+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// cleanThinkingTags removes any <think>...</think> tags from model output.
// Some models use these for chain-of-thought reasoning.
func cleanThinkingTags(text string) string {
	result := text
	for {
		start := strings.Index(result, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(result, "</think>")
		if end == -1 {
			result = result[:start] + result[start+len("<think>"):]
			continue
		}
		result = result[:start] + result[end+len("</think>"):]
	}
	return result
}

var _ domainservice.Extractor = (*LLMExtractor)(nil)
