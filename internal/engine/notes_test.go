package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recallkb/recall/internal/llm"
	"github.com/recallkb/recall/internal/store"
)

func TestCreateNoteMergesModelTags(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{
		Content: `{"summary":"model summary","tags":["go","testing"]}`,
	}}
	e, _ := testEngine(t, mock)

	note, err := e.CreateNote(context.Background(), CreateNoteInput{
		Title:   "Go Testing",
		Content: "table tests everywhere",
		Tags:    []string{" go ", "", "tips"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, note.ID)
	require.Equal(t, "model summary", note.Summary)
	require.Equal(t, []string{"go", "tips", "testing"}, note.Tags)
	require.Equal(t, 0.9, note.Confidence)
	require.NotNil(t, note.LastAccessedAt)
}

func TestCreateNoteDropsIncompleteLinks(t *testing.T) {
	e, db := testEngine(t, nil)

	note, err := e.CreateNote(context.Background(), CreateNoteInput{
		Title:   "Links",
		Content: "body",
		Links: []store.Link{
			{Label: "Docs", URL: "https://example.com/docs"},
			{Label: "", URL: "https://example.com/missing-label"},
			{Label: "no url", URL: "  "},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []store.Link{{Label: "Docs", URL: "https://example.com/docs"}}, note.Links)

	stored, err := db.Get(context.Background(), note.ID)
	require.NoError(t, err)
	require.Equal(t, note.Links, stored.Links)
}

func TestGetNoteStampsAccessTime(t *testing.T) {
	e, db := testEngine(t, nil)

	created, err := e.CreateNote(context.Background(), CreateNoteInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	got, err := e.GetNote(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAccessedAt)

	stored, err := db.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastAccessedAt)
	require.Equal(t, got.LastAccessedAt.UnixMilli(), stored.LastAccessedAt.UnixMilli())
}

func TestUpdateTagsOnlySkipsSummarization(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{
		Content: `{"summary":"model summary","tags":["ai"]}`,
	}}
	e, _ := testEngine(t, mock)

	created, err := e.CreateNote(context.Background(), CreateNoteInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)

	tags := []string{"replaced"}
	updated, err := e.UpdateNote(context.Background(), created.ID, UpdateNoteInput{Tags: &tags})
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1, "tag-only update must not call the model")
	require.Equal(t, []string{"replaced"}, updated.Tags)
	require.Equal(t, "model summary", updated.Summary)
}

func TestUpdateContentResummarizes(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{
		Content: `{"summary":"fresh summary","tags":["new-tag"]}`,
	}}
	e, _ := testEngine(t, mock)

	created, err := e.CreateNote(context.Background(), CreateNoteInput{
		Title: "t", Content: "c", Tags: []string{"kept"},
	})
	require.NoError(t, err)

	content := "rewritten content"
	updated, err := e.UpdateNote(context.Background(), created.ID, UpdateNoteInput{Content: &content})
	require.NoError(t, err)
	require.Len(t, mock.Calls, 2)
	require.Equal(t, "rewritten content", updated.Content)
	require.Equal(t, "fresh summary", updated.Summary)
	require.Contains(t, updated.Tags, "kept")
	require.Contains(t, updated.Tags, "new-tag")
}

func TestUpdateMissingNote(t *testing.T) {
	e, _ := testEngine(t, nil)

	title := "nope"
	_, err := e.UpdateNote(context.Background(), "does-not-exist", UpdateNoteInput{Title: &title})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListNotesDefaultLimit(t *testing.T) {
	e, db := testEngine(t, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Insert(context.Background(), &store.Note{Title: "n", Content: "c"}))
	}

	notes, err := e.ListNotes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, notes, 3)
}
