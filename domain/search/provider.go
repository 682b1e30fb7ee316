// Package search provides domain types for embedding generation and
// similarity retrieval.
package search

import (
	"errors"
	"fmt"
)

// Provider identifies an external embedding/extraction service.
// The set is closed: adding a provider means extending the normalization
// width table, not adding conditional branches.
type Provider string

// Supported providers.
const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// ErrUnknownProvider indicates a provider name outside the supported set.
var ErrUnknownProvider = errors.New("unknown embedding provider")

// ParseProvider validates a provider name.
func ParseProvider(name string) (Provider, error) {
	switch Provider(name) {
	case ProviderOpenAI, ProviderGemini:
		return Provider(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// String returns the provider name.
func (p Provider) String() string { return string(p) }
