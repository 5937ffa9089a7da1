package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/recallkb/recall/internal/store"
)

// noteJSON is the client-facing note shape. Timestamps are RFC3339 strings,
// null when absent; slice fields are never null.
type noteJSON struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Content        string       `json:"content"`
	Insights       []string     `json:"insights"`
	Summary        string       `json:"summary"`
	Tags           []string     `json:"tags"`
	Links          []store.Link `json:"links"`
	Confidence     float64      `json:"confidence"`
	LastAccessedAt *string      `json:"lastAccessedAt"`
	CreatedAt      *string      `json:"createdAt"`
	UpdatedAt      *string      `json:"updatedAt"`
}

// publicNoteJSON is the reduced projection for unauthenticated listing:
// no content, insights, links, or access timestamp.
type publicNoteJSON struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	Confidence float64  `json:"confidence"`
	UpdatedAt  *string  `json:"updatedAt"`
}

func renderNote(n store.Note) noteJSON {
	return noteJSON{
		ID:             n.ID,
		Title:          n.Title,
		Content:        n.Content,
		Insights:       orEmpty(n.Insights),
		Summary:        n.Summary,
		Tags:           orEmpty(n.Tags),
		Links:          orEmptyLinks(n.Links),
		Confidence:     n.Confidence,
		LastAccessedAt: timeString(n.LastAccessedAt),
		CreatedAt:      timeStringVal(n.CreatedAt),
		UpdatedAt:      timeStringVal(n.UpdatedAt),
	}
}

func renderPublicNote(n store.Note) publicNoteJSON {
	return publicNoteJSON{
		ID:         n.ID,
		Title:      n.Title,
		Summary:    n.Summary,
		Tags:       orEmpty(n.Tags),
		Confidence: n.Confidence,
		UpdatedAt:  timeStringVal(n.UpdatedAt),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyLinks(l []store.Link) []store.Link {
	if l == nil {
		return []store.Link{}
	}
	return l
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func timeStringVal(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	return timeString(&t)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
