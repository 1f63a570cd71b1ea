package ai

import (
	"fmt"
	"sort"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) (Runtime, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	// Common
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OpenRouter, OpenAI, Gemini
	APIKey string
	// OpenRouter and OpenAI-compatible gateways
	BaseURL string
	// Ollama
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// GetRuntime creates a Runtime for the given provider.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, Providers())
	}
	return f(cfg)
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// init registers built-in runtimes.
func init() {
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) (Runtime, error) {
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay, c.BaseURL), nil
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) (Runtime, error) {
		return NewOllamaClient(c.Host, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay), nil
	})
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) (Runtime, error) {
		return NewOpenAIRuntime(c.APIKey, c.BaseURL)
	})
	RegisterRuntime(ProviderGemini, func(c RuntimeConfig) (Runtime, error) {
		return NewGeminiRuntime(c.APIKey)
	})
}
