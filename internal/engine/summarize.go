package engine

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/recallkb/recall/internal/llm"
)

const (
	maxFallbackTags    = 5
	maxFallbackSummary = 180
)

// SummaryResult is the outcome of summarizing a note: a short summary and
// suggested tags. It is always usable; failures collapse into the
// deterministic fallback, never into an error.
type SummaryResult struct {
	Summary string
	Tags    []string
}

// SummarizeAndTag produces a summary and tag suggestions for a note's text.
// Without a configured model it derives both locally; with one, it asks for
// JSON and falls back field-by-field when the response is unusable.
func (e *Engine) SummarizeAndTag(ctx context.Context, title, content string, insights []string) SummaryResult {
	fallback := SummaryResult{
		Summary: fallbackSummary(content, insights),
		Tags:    fallbackTags(title),
	}
	if e.LLM == nil {
		return fallback
	}

	resp, err := e.LLM.Complete(ctx, llm.SummarizePrompt(title, content, insights), llm.Options{
		Temperature: 0.2,
	})
	if err != nil {
		e.log.Warn("summarize call failed, using fallback", zap.Error(err))
		return SummaryResult{Summary: fallback.Summary, Tags: []string{}}
	}

	var parsed struct {
		Summary string   `json:"summary"`
		Tags    []string `json:"tags"`
	}
	if !decodeLenient(resp.Content, &parsed) {
		return SummaryResult{Summary: fallback.Summary, Tags: []string{}}
	}

	result := SummaryResult{Summary: parsed.Summary, Tags: parsed.Tags}
	if result.Summary == "" {
		result.Summary = fallback.Summary
	}
	if result.Tags == nil {
		result.Tags = []string{}
	}
	return result
}

// fallbackSummary joins content and insights and truncates to 180 chars.
func fallbackSummary(content string, insights []string) string {
	parts := append([]string{content}, insights...)
	return truncate(strings.Join(parts, "\n"), maxFallbackSummary)
}

// fallbackTags derives up to five tags from the lowercased words of the title.
func fallbackTags(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(words) > maxFallbackTags {
		words = words[:maxFallbackTags]
	}
	if words == nil {
		return []string{}
	}
	return words
}

// decodeLenient unmarshals model output that should be JSON but often has
// prose wrapped around it: try the whole string, then the slice between the
// first "{" and the last "}".
func decodeLenient(raw string, v any) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if json.Unmarshal([]byte(trimmed), v) == nil {
		return true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return json.Unmarshal([]byte(trimmed[start:end+1]), v) == nil
	}
	return false
}

// truncate limits s to n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
