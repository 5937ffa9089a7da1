package llm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recallkb/recall/internal/config"
)

func TestNewClientDispatch(t *testing.T) {
	client, err := NewClient(config.LLMConfig{Provider: "gemini", GeminiKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &Gemini{}, client)

	client, err = NewClient(config.LLMConfig{Provider: "openai", OpenAIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &OpenAI{}, client)
}

func TestNewClientMissingKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "gemini"})
	require.ErrorContains(t, err, "GEMINI_API_KEY")

	_, err = NewClient(config.LLMConfig{Provider: "openai"})
	require.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "llama-at-home"})
	require.ErrorContains(t, err, "unknown LLM provider")
}
