package llm

import (
	"context"
	"fmt"

	"github.com/recallkb/recall/internal/config"
)

// Client is the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (*Response, error)
}

// Options tune a single completion call.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Response holds the result of an LLM completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewClient creates an LLM client based on the config provider setting.
// A missing API key is an error; callers treat it as "no model configured"
// and run with the deterministic local fallbacks instead.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		model := cfg.GeminiModel
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return NewGemini(cfg.GeminiKey, model), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		model := cfg.OpenAIModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAI(cfg.OpenAIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
