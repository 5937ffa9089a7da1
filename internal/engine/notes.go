package engine

import (
	"context"
	"strings"
	"time"

	"github.com/recallkb/recall/internal/store"
)

const defaultListLimit = 50

// CreateNoteInput carries a validated create request.
type CreateNoteInput struct {
	Title    string
	Content  string
	Insights []string
	Tags     []string
	Links    []store.Link
}

// UpdateNoteInput carries a partial update; nil fields are left untouched.
type UpdateNoteInput struct {
	Title    *string
	Content  *string
	Insights *[]string
	Tags     *[]string
	Links    *[]store.Link
}

// CreateNote summarizes the submitted text, merges suggested tags into the
// user's tags, stamps lastAccessedAt, and persists the note.
func (e *Engine) CreateNote(ctx context.Context, in CreateNoteInput) (*store.Note, error) {
	ai := e.SummarizeAndTag(ctx, in.Title, in.Content, in.Insights)

	now := time.Now().UTC()
	note := &store.Note{
		Title:          in.Title,
		Content:        in.Content,
		Insights:       in.Insights,
		Summary:        ai.Summary,
		Tags:           mergeTags(in.Tags, ai.Tags),
		Links:          cleanLinks(in.Links),
		Confidence:     0.9,
		LastAccessedAt: &now,
	}
	if err := e.Store.Insert(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// GetNote fetches a note and stamps lastAccessedAt as a side effect.
func (e *Engine) GetNote(ctx context.Context, id string) (*store.Note, error) {
	note, err := e.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := e.Store.Touch(ctx, id, now); err != nil {
		return nil, err
	}
	note.LastAccessedAt = &now
	return note, nil
}

// UpdateNote applies only the provided fields. When title, content or
// insights change, the note is re-summarized with the post-update values and
// the new suggested tags are unioned into the tag set.
func (e *Engine) UpdateNote(ctx context.Context, id string, in UpdateNoteInput) (*store.Note, error) {
	note, err := e.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.Insights != nil {
		note.Insights = *in.Insights
	}
	if in.Tags != nil {
		note.Tags = mergeTags(*in.Tags, nil)
	}
	if in.Links != nil {
		note.Links = cleanLinks(*in.Links)
	}

	if in.Title != nil || in.Content != nil || in.Insights != nil {
		ai := e.SummarizeAndTag(ctx, note.Title, note.Content, note.Insights)
		note.Summary = ai.Summary
		note.Tags = mergeTags(note.Tags, ai.Tags)
	}

	if err := e.Store.Replace(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// DeleteNote removes a note. Notes have no children, so no cascade.
func (e *Engine) DeleteNote(ctx context.Context, id string) error {
	return e.Store.Delete(ctx, id)
}

// ListNotes returns notes newest-updated first, default limit 50.
func (e *Engine) ListNotes(ctx context.Context, limit int) ([]store.Note, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return e.Store.List(ctx, limit)
}

// mergeTags unions two tag lists: trimmed, empties dropped, case-sensitive
// dedupe, first-seen order preserved.
func mergeTags(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, tag := range append(append([]string{}, base...), extra...) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}
	return merged
}

// cleanLinks drops pairs missing a label or a URL.
func cleanLinks(links []store.Link) []store.Link {
	cleaned := make([]store.Link, 0, len(links))
	for _, l := range links {
		if strings.TrimSpace(l.Label) == "" || strings.TrimSpace(l.URL) == "" {
			continue
		}
		cleaned = append(cleaned, l)
	}
	return cleaned
}
