package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get, Replace, Touch and Delete when no note
// exists for the given id.
var ErrNotFound = errors.New("note not found")

// Link is a labeled URL attached to a note. Both fields are required;
// pairs with an empty side are dropped before persistence.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Note is the persisted knowledge unit.
type Note struct {
	ID             string
	Title          string
	Content        string
	Insights       []string
	Summary        string
	Tags           []string
	Links          []Link
	Confidence     float64
	LastAccessedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConfidenceUpdate is one entry in a batched confidence write.
type ConfidenceUpdate struct {
	ID         string
	Confidence float64
}

// Store is the note persistence contract. Two backends implement it:
// a MongoDB document store and an embedded SQLite store.
type Store interface {
	// Insert persists a new note, assigning its id and timestamps.
	Insert(ctx context.Context, n *Note) error

	// Get returns the note with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Note, error)

	// Replace overwrites the stored document with n wholesale and bumps
	// its updatedAt. Returns ErrNotFound for an unknown id.
	Replace(ctx context.Context, n *Note) error

	// Touch sets lastAccessedAt without changing updatedAt.
	Touch(ctx context.Context, id string, at time.Time) error

	// Delete removes the note, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns up to limit notes, newest-updated first.
	List(ctx context.Context, limit int) ([]Note, error)

	// SearchText runs relevance-ranked full-text search over title,
	// content, insights, tags and summary. An error here signals the
	// search mechanism itself is unavailable; callers fall back to
	// SearchSubstring.
	SearchText(ctx context.Context, query string, limit int) ([]Note, error)

	// SearchSubstring matches query as a case-insensitive substring of
	// title, content or summary, newest-updated first.
	SearchSubstring(ctx context.Context, query string, limit int) ([]Note, error)

	// All returns every note; the decay job scans them in one pass.
	All(ctx context.Context) ([]Note, error)

	// BulkSetConfidence applies all confidence updates in one batched
	// write and reports how many documents changed.
	BulkSetConfidence(ctx context.Context, updates []ConfidenceUpdate) (int, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
