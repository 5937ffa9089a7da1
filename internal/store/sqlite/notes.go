package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/recallkb/recall/internal/store"
)

const noteColumns = `id, title, content, insights, summary, tags, links,
	confidence, last_accessed_at, created_at, updated_at`

// Insert persists a new note, assigning its id and timestamps.
func (db *DB) Insert(ctx context.Context, n *store.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Confidence == 0 {
		n.Confidence = 0.9
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	n.CreatedAt = now
	n.UpdatedAt = now

	var lastAccessed any
	if n.LastAccessedAt != nil {
		lastAccessed = n.LastAccessedAt.UnixMilli()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, insights, summary, tags, links,
			confidence, last_accessed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Content, marshalJSON(n.Insights), n.Summary,
		marshalJSON(n.Tags), marshalJSON(n.Links),
		n.Confidence, lastAccessed, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// Get returns the note with the given id, or store.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (*store.Note, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)

	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// Replace overwrites the stored document and bumps updated_at.
func (db *DB) Replace(ctx context.Context, n *store.Note) error {
	now := time.Now().UTC().Truncate(time.Millisecond)

	var lastAccessed any
	if n.LastAccessedAt != nil {
		lastAccessed = n.LastAccessedAt.UnixMilli()
	}

	res, err := db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, insights = ?, summary = ?,
			tags = ?, links = ?, confidence = ?, last_accessed_at = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, n.Content, marshalJSON(n.Insights), n.Summary,
		marshalJSON(n.Tags), marshalJSON(n.Links),
		n.Confidence, lastAccessed, now.UnixMilli(), n.ID)
	if err != nil {
		return fmt.Errorf("replace note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	n.UpdatedAt = now
	return nil
}

// Touch records a read by setting last_accessed_at. It deliberately does
// not bump updated_at: reads must not reorder the recency listing.
func (db *DB) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE notes SET last_accessed_at = ? WHERE id = ?`, at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("touch note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the note, or returns store.ErrNotFound.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// List returns up to limit notes, newest-updated first.
func (db *DB) List(ctx context.Context, limit int) ([]store.Note, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// All returns every note for the decay scan.
func (db *DB) All(ctx context.Context) ([]store.Note, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("all notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// SearchText runs bm25-ranked full-text search over the FTS5 index.
// The raw question is tokenized into quoted OR terms so natural-language
// punctuation never reaches the MATCH parser.
func (db *DB) SearchText(ctx context.Context, query string, limit int) ([]store.Note, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT notes.id, notes.title, notes.content, notes.insights, notes.summary,
			notes.tags, notes.links, notes.confidence, notes.last_accessed_at,
			notes.created_at, notes.updated_at
		FROM notes
		JOIN notes_fts ON notes_fts.rowid = notes.rowid
		WHERE notes_fts MATCH ?
		ORDER BY bm25(notes_fts)
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// SearchSubstring matches the query as a case-insensitive substring of
// title, content or summary, newest-updated first.
func (db *DB) SearchSubstring(ctx context.Context, query string, limit int) ([]store.Note, error) {
	q := strings.ToLower(query)
	rows, err := db.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE instr(lower(title), ?) > 0
		   OR instr(lower(content), ?) > 0
		   OR instr(lower(summary), ?) > 0
		ORDER BY updated_at DESC
		LIMIT ?
	`, q, q, q, limit)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// BulkSetConfidence applies all updates inside one transaction.
func (db *DB) BulkSetConfidence(ctx context.Context, updates []store.ConfidenceUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk update: %w", err)
	}

	changed := 0
	for _, u := range updates {
		res, err := tx.ExecContext(ctx,
			`UPDATE notes SET confidence = ? WHERE id = ?`, u.Confidence, u.ID)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("bulk update %s: %w", u.ID, err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			changed++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk update: %w", err)
	}
	return changed, nil
}

// ftsQuery turns free text into an FTS5 query: alphanumeric tokens,
// each quoted, joined with OR. Returns "" when nothing is searchable.
func ftsQuery(query string) string {
	tokens := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// marshalJSON encodes a slice column, normalizing nil to an empty array.
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*store.Note, error) {
	var n store.Note
	var insights, tags, links string
	var lastAccessed sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&n.ID, &n.Title, &n.Content, &insights, &n.Summary,
		&tags, &links, &n.Confidence, &lastAccessed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(insights), &n.Insights); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &n.Links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}

	if lastAccessed.Valid {
		t := time.UnixMilli(lastAccessed.Int64).UTC()
		n.LastAccessedAt = &t
	}
	n.CreatedAt = time.UnixMilli(createdAt).UTC()
	n.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]store.Note, error) {
	var notes []store.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}
