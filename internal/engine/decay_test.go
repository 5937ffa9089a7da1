package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recallkb/recall/internal/store"
	"github.com/recallkb/recall/internal/store/sqlite"
)

// insertAged creates a note whose lastAccessedAt sits the given number of
// days in the past.
func insertAged(t *testing.T, db *sqlite.DB, title string, daysAgo float64) *store.Note {
	t.Helper()
	ctx := context.Background()

	n := &store.Note{Title: title, Content: "body"}
	require.NoError(t, db.Insert(ctx, n))

	at := time.Now().UTC().Add(-time.Duration(daysAgo * 24 * float64(time.Hour)))
	require.NoError(t, db.Touch(ctx, n.ID, at))
	return n
}

func TestDecayTenDaysExample(t *testing.T) {
	e, db := testEngine(t, nil)
	n := insertAged(t, db, "aged", 10)

	report, err := e.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	require.Equal(t, 1, report.Updated)
	require.Equal(t, 0.015, report.DecayRate)

	got, err := db.Get(context.Background(), n.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.75, got.Confidence, 0.0002) // 0.9 - 10*0.015
}

func TestDecayFloorsAtPointOne(t *testing.T) {
	e, db := testEngine(t, nil)
	n := insertAged(t, db, "ancient", 400)

	_, err := e.RunDecay(context.Background())
	require.NoError(t, err)

	got, err := db.Get(context.Background(), n.ID)
	require.NoError(t, err)
	require.Equal(t, 0.1, got.Confidence)
}

func TestDecaySecondRunIsNoOp(t *testing.T) {
	e, db := testEngine(t, nil)
	insertAged(t, db, "aged", 10)
	insertAged(t, db, "older", 30)

	first, err := e.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.Updated)

	second, err := e.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, second.Processed)
	require.Equal(t, 0, second.Updated)
}

func TestDecaySkipsFreshNotes(t *testing.T) {
	e, db := testEngine(t, nil)

	now := time.Now().UTC()
	n := &store.Note{Title: "fresh", Content: "body", LastAccessedAt: &now}
	require.NoError(t, db.Insert(context.Background(), n))

	report, err := e.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Updated)

	got, err := db.Get(context.Background(), n.ID)
	require.NoError(t, err)
	require.Equal(t, 0.9, got.Confidence)
}

func TestDecayMonotonicAndBounded(t *testing.T) {
	e, db := testEngine(t, nil)

	ages := []float64{0.5, 3, 12, 60, 365}
	before := map[string]float64{}
	for _, age := range ages {
		n := insertAged(t, db, "n", age)
		got, err := db.Get(context.Background(), n.ID)
		require.NoError(t, err)
		before[n.ID] = got.Confidence
	}

	_, err := e.RunDecay(context.Background())
	require.NoError(t, err)

	after, err := db.All(context.Background())
	require.NoError(t, err)
	for _, n := range after {
		require.GreaterOrEqual(t, n.Confidence, 0.1)
		require.LessOrEqual(t, n.Confidence, before[n.ID])
	}
}

func TestDecayCustomRate(t *testing.T) {
	db := testDB(t)
	e := New(db, nil, nil, 0.05)
	n := insertAged(t, db, "aged", 4)

	report, err := e.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.05, report.DecayRate)

	got, err := db.Get(context.Background(), n.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.7, got.Confidence, 0.0002) // 0.9 - 4*0.05
}
