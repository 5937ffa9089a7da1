package engine

import (
	"context"
	"testing"

	"github.com/recallkb/recall/internal/llm"
	"github.com/recallkb/recall/internal/store"
	"github.com/recallkb/recall/internal/store/sqlite"
)

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

// testEngine wires an engine to an in-memory store. client may be nil to
// exercise the local fallbacks.
func testEngine(t *testing.T, client llm.Client) (*Engine, *sqlite.DB) {
	t.Helper()
	db := testDB(t)
	return New(db, client, nil, 0), db
}

// failingSearchStore simulates a store whose text-search mechanism is
// unavailable, forcing the substring fallback tier.
type failingSearchStore struct {
	store.Store
	err error
}

func (f *failingSearchStore) SearchText(ctx context.Context, query string, limit int) ([]store.Note, error) {
	return nil, f.err
}
