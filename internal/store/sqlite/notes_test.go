package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recallkb/recall/internal/store"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

func mustInsert(t *testing.T, db *DB, n *store.Note) *store.Note {
	t.Helper()
	if err := db.Insert(context.Background(), n); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return n
}

func TestInsertAndGet(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()

	n := mustInsert(t, db, &store.Note{
		Title:          "Rust Ownership",
		Content:        "Ownership prevents use-after-free.",
		Insights:       []string{"borrow checker", "move semantics"},
		Summary:        "Memory safety without GC.",
		Tags:           []string{"rust", "memory"},
		Links:          []store.Link{{Label: "The Book", URL: "https://doc.rust-lang.org/book/"}},
		LastAccessedAt: &now,
	})

	if n.ID == "" {
		t.Fatal("expected assigned id")
	}
	if n.Confidence != 0.9 {
		t.Errorf("confidence = %v, want default 0.9", n.Confidence)
	}

	found, err := db.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found.Title != "Rust Ownership" {
		t.Errorf("title = %q", found.Title)
	}
	if len(found.Insights) != 2 || found.Insights[1] != "move semantics" {
		t.Errorf("insights = %v", found.Insights)
	}
	if len(found.Links) != 1 || found.Links[0].Label != "The Book" {
		t.Errorf("links = %v", found.Links)
	}
	if found.LastAccessedAt == nil {
		t.Error("expected lastAccessedAt to round-trip")
	}
	if found.CreatedAt.IsZero() || found.UpdatedAt.IsZero() {
		t.Error("expected store-managed timestamps")
	}
}

func TestGetNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.Get(context.Background(), "no-such-id")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReplace(t *testing.T) {
	db := testDB(t)
	n := mustInsert(t, db, &store.Note{Title: "Draft", Content: "v1"})

	n.Content = "v2"
	n.Tags = []string{"revised"}
	if err := db.Replace(context.Background(), n); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	found, _ := db.Get(context.Background(), n.ID)
	if found.Content != "v2" {
		t.Errorf("content = %q, want v2", found.Content)
	}
	if len(found.Tags) != 1 || found.Tags[0] != "revised" {
		t.Errorf("tags = %v", found.Tags)
	}

	missing := &store.Note{ID: "ghost", Title: "x", Content: "y"}
	if err := db.Replace(context.Background(), missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("replace missing: err = %v, want ErrNotFound", err)
	}
}

func TestTouchSetsAccessTimeOnly(t *testing.T) {
	db := testDB(t)
	n := mustInsert(t, db, &store.Note{Title: "A", Content: "B"})

	at := time.Now().UTC().Add(time.Hour)
	if err := db.Touch(context.Background(), n.ID, at); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	found, _ := db.Get(context.Background(), n.ID)
	if found.LastAccessedAt == nil {
		t.Fatal("expected lastAccessedAt set")
	}
	if got := found.LastAccessedAt.UnixMilli(); got != at.UnixMilli() {
		t.Errorf("lastAccessedAt = %d, want %d", got, at.UnixMilli())
	}
	if !found.UpdatedAt.Equal(n.UpdatedAt) {
		t.Error("Touch must not bump updatedAt")
	}

	if err := db.Touch(context.Background(), "ghost", at); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("touch missing: err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	n := mustInsert(t, db, &store.Note{Title: "A", Content: "B"})

	if err := db.Delete(context.Background(), n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get(context.Background(), n.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := db.Delete(context.Background(), n.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestListNewestUpdatedFirst(t *testing.T) {
	db := testDB(t)

	mustInsert(t, db, &store.Note{Title: "oldest", Content: "x"})
	time.Sleep(5 * time.Millisecond)
	mustInsert(t, db, &store.Note{Title: "middle", Content: "x"})
	time.Sleep(5 * time.Millisecond)
	mustInsert(t, db, &store.Note{Title: "newest", Content: "x"})

	notes, err := db.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("len = %d, want 2", len(notes))
	}
	if notes[0].Title != "newest" || notes[1].Title != "middle" {
		t.Errorf("order = [%s, %s]", notes[0].Title, notes[1].Title)
	}
}

func TestSearchText(t *testing.T) {
	db := testDB(t)

	mustInsert(t, db, &store.Note{
		Title:   "Rust Ownership",
		Content: "Ownership prevents use-after-free.",
		Tags:    []string{"rust"},
	})
	mustInsert(t, db, &store.Note{
		Title:   "Sourdough Starter",
		Content: "Feed twice daily.",
	})

	notes, err := db.SearchText(context.Background(), "what is rust?", 8)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "Rust Ownership" {
		t.Fatalf("notes = %v", notes)
	}

	// Nothing searchable in the query yields no results, not an error.
	notes, err = db.SearchText(context.Background(), "???", 8)
	if err != nil {
		t.Fatalf("SearchText punctuation: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("len = %d, want 0", len(notes))
	}
}

func TestSearchSubstring(t *testing.T) {
	db := testDB(t)

	mustInsert(t, db, &store.Note{Title: "Rust Ownership", Content: "x"})
	time.Sleep(5 * time.Millisecond)
	mustInsert(t, db, &store.Note{Title: "More Rust", Content: "x", Summary: "notes on rust ownership"})

	notes, err := db.SearchSubstring(context.Background(), "RUST OWNERSHIP", 8)
	if err != nil {
		t.Fatalf("SearchSubstring: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("len = %d, want 2", len(notes))
	}
	if notes[0].Title != "More Rust" {
		t.Errorf("expected newest-updated first, got %q", notes[0].Title)
	}

	// Verbatim multi-word match only.
	notes, _ = db.SearchSubstring(context.Background(), "ownership rust", 8)
	if len(notes) != 0 {
		t.Errorf("len = %d, want 0 for non-verbatim phrase", len(notes))
	}
}

func TestBulkSetConfidence(t *testing.T) {
	db := testDB(t)

	a := mustInsert(t, db, &store.Note{Title: "A", Content: "x"})
	b := mustInsert(t, db, &store.Note{Title: "B", Content: "x"})

	changed, err := db.BulkSetConfidence(context.Background(), []store.ConfidenceUpdate{
		{ID: a.ID, Confidence: 0.75},
		{ID: b.ID, Confidence: 0.1},
		{ID: "ghost", Confidence: 0.5},
	})
	if err != nil {
		t.Fatalf("BulkSetConfidence: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	got, _ := db.Get(context.Background(), a.ID)
	if got.Confidence != 0.75 {
		t.Errorf("confidence = %v, want 0.75", got.Confidence)
	}
}
