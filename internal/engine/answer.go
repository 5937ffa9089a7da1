package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/recallkb/recall/internal/llm"
	"github.com/recallkb/recall/internal/store"
)

const (
	// maxCandidates bounds the candidate set handed to the answer call.
	maxCandidates = 8

	maxFallbackAnswer = 1200
)

// SourceRef identifies a note an answer drew from.
type SourceRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MatchRef is a candidate note as reported back to the caller.
type MatchRef struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// QueryResult is the answer pipeline's output.
type QueryResult struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
	Matches []MatchRef  `json:"matches"`
}

// FindRelevantNotes retrieves up to 8 candidates for a question:
// relevance-ranked text search first, and when that mechanism errors, a
// permissive substring match ordered by most-recently-updated. The
// substring tier matches the raw question verbatim and may legitimately
// return nothing for multi-word questions.
func (e *Engine) FindRelevantNotes(ctx context.Context, question string) ([]store.Note, error) {
	notes, err := e.Store.SearchText(ctx, question, maxCandidates)
	if err == nil {
		return notes, nil
	}
	e.log.Warn("text search unavailable, falling back to substring match", zap.Error(err))

	return e.Store.SearchSubstring(ctx, question, maxCandidates)
}

// Answer runs the full pipeline: retrieve candidates, delegate to the
// language model, and degrade to a local composed answer when the model is
// unconfigured, unavailable, or returns nothing usable.
func (e *Engine) Answer(ctx context.Context, question string) (QueryResult, error) {
	candidates, err := e.FindRelevantNotes(ctx, question)
	if err != nil {
		return QueryResult{}, err
	}

	answer, sources := e.answerQuestion(ctx, question, candidates)

	matches := make([]MatchRef, 0, len(candidates))
	for _, n := range candidates {
		matches = append(matches, MatchRef{
			ID:         n.ID,
			Title:      n.Title,
			Summary:    n.Summary,
			Confidence: n.Confidence,
		})
	}

	return QueryResult{Answer: answer, Sources: sources, Matches: matches}, nil
}

func (e *Engine) answerQuestion(ctx context.Context, question string, notes []store.Note) (string, []SourceRef) {
	if e.LLM == nil {
		return "No language model is configured. Set GEMINI_API_KEY or OPENAI_API_KEY to enable synthesized answers.",
			topSources(notes)
	}

	contexts := make([]llm.NoteContext, 0, len(notes))
	for _, n := range notes {
		contexts = append(contexts, llm.NoteContext{
			ID:      n.ID,
			Title:   n.Title,
			Content: n.Content,
			Summary: n.Summary,
		})
	}

	resp, err := e.LLM.Complete(ctx, llm.AnswerPrompt(question, contexts), llm.Options{
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		e.log.Warn("answer call failed, composing fallback", zap.Error(err))
		return composeFallbackAnswer(question, notes)
	}

	var parsed struct {
		Answer  string      `json:"answer"`
		Sources []SourceRef `json:"sources"`
	}
	if !decodeLenient(resp.Content, &parsed) || parsed.Answer == "" {
		return composeFallbackAnswer(question, notes)
	}

	sources := parsed.Sources
	if len(sources) == 0 {
		sources = topSources(notes)
	}
	return parsed.Answer, sources
}

var bulletPrefix = regexp.MustCompile(`^[-•*]+\s*`)

// composeFallbackAnswer stitches the top three candidates' summaries (or
// content) into line-attributed prose, capped at 1200 chars. Purely local:
// this is what keeps /query alive when the model is down.
func composeFallbackAnswer(question string, notes []store.Note) (string, []SourceRef) {
	top := notes
	if len(top) > 3 {
		top = top[:3]
	}

	var blocks []string
	for _, n := range top {
		raw := strings.TrimSpace(n.Summary + "\n" + n.Content)
		if raw == "" {
			continue
		}

		var sentences []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
			if line == "" {
				continue
			}
			sentences = append(sentences, bulletPrefix.ReplaceAllString(line, "")+".")
		}
		if len(sentences) == 0 {
			continue
		}

		blocks = append(blocks, fmt.Sprintf("From your note %q: %s", n.Title, strings.Join(sentences, " ")))
	}

	stitched := truncate(strings.Join(blocks, "\n\n"), maxFallbackAnswer)
	if stitched == "" {
		return fmt.Sprintf("I couldn't find a direct answer in the notes for %q. Try adding more context.", question),
			topSources(top)
	}

	answer := fmt.Sprintf("Based on your notes, here's a detailed explanation of %q:\n\n%s\n\nIf you want deeper detail on any part, add more notes or ask a follow-up question.",
		question, stitched)
	return answer, topSources(top)
}

// topSources cites the first three candidates.
func topSources(notes []store.Note) []SourceRef {
	if len(notes) > 3 {
		notes = notes[:3]
	}
	sources := make([]SourceRef, 0, len(notes))
	for _, n := range notes {
		sources = append(sources, SourceRef{ID: n.ID, Title: n.Title})
	}
	return sources
}
