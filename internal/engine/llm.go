package engine

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Completer sends one prompt to a chat model and returns its reply with
// code fences removed.
type Completer func(ctx context.Context, prompt string) (string, error)

// LLMConfig configures NewCompleter.
type LLMConfig struct {
	APIBase     string
	APIKey      string
	Fallbacks   []string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewCompleter returns a Completer backed by an OpenAI-compatible endpoint,
// or nil when no API key is configured.
func NewCompleter(c LLMConfig) Completer {
	if c.APIKey == "" {
		return nil
	}
	client := llm.NewClient(c.APIBase, c.APIKey, c.Model,
		llm.WithFallbackKeys(c.Fallbacks),
		llm.WithMaxTokens(c.MaxTokens),
		llm.WithTemperature(c.Temperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)
	return func(ctx context.Context, prompt string) (string, error) {
		metrics.LLMCalls.Add(1)
		resp, err := client.Complete(ctx, "", prompt)
		if err != nil {
			metrics.LLMErrors.Add(1)
			return "", err
		}
		return StripFences(resp), nil
	}
}

// StripFences removes markdown code fences from LLM output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
