package db

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

func openTestDB(t *testing.T) *DatabaseClient {
	t.Helper()
	c, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func intPtr(n int) *int { return &n }

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE b = ? AND c = ?`
	assert.Equal(t, `SELECT a FROM t WHERE b = $1 AND c = $2`, dialectPostgres.rebind(q))
	assert.Equal(t, q, dialectSQLite.rebind(q))
}

func TestBootstrap_Idempotent(t *testing.T) {
	c := openTestDB(t)
	require.NoError(t, EnsureBootstrapped(context.Background(), c.DB(), dialectSQLite))
}

func TestDocuments_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t)

	doc := &models.Document{
		ID:         "doc-1",
		NotebookID: "nb-1",
		Filename:   "cells.pdf",
		SourceKind: models.KindPDF,
		UploadedAt: time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC),
		Chunks: []models.Chunk{
			{Text: "page one text", Page: intPtr(1)},
			{Text: "page three text", Page: intPtr(3)},
		},
		ChunksCount: 2,
		TotalPages:  3,
		StoragePath: "nb-1/doc-1.pdf",
		Metadata:    map[string]any{"title": "Cells", "num_pages": 3},
	}
	require.NoError(t, c.InsertDocument(ctx, doc))

	got, err := c.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, models.KindPDF, got.SourceKind)
	assert.True(t, doc.UploadedAt.Equal(got.UploadedAt), "uploaded_at %v != %v", doc.UploadedAt, got.UploadedAt)
	assert.Equal(t, doc.Chunks, got.Chunks)
	assert.Equal(t, 3, got.TotalPages)
	assert.Equal(t, "Cells", got.Metadata["title"])
	assert.Nil(t, got.Transcript)

	_, err = c.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDocuments_YouTubeTranscript(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t)

	doc := &models.Document{
		ID:          "yt-1",
		NotebookID:  "nb-1",
		Filename:    "Photosynthesis",
		SourceKind:  models.KindYouTube,
		UploadedAt:  time.Now().UTC(),
		SourceURL:   "https://youtu.be/abc",
		Transcript:  []models.TranscriptEntry{{Text: "hello", Start: 0.5, Duration: 1.25}},
		Chunks:      []models.Chunk{{Text: "hello"}},
		ChunksCount: 1,
	}
	require.NoError(t, c.InsertDocument(ctx, doc))

	got, err := c.GetDocument(ctx, "yt-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Transcript, got.Transcript)
	assert.Nil(t, got.Chunks[0].Page)
}

func TestDocuments_UpdateListDelete(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t)

	for _, id := range []string{"a", "b"} {
		require.NoError(t, c.InsertDocument(ctx, &models.Document{
			ID: id, NotebookID: "nb", Filename: id + ".txt", SourceKind: models.KindText, UploadedAt: time.Now().UTC(),
		}))
	}
	require.NoError(t, c.InsertDocument(ctx, &models.Document{
		ID: "other", NotebookID: "nb-2", Filename: "x.txt", SourceKind: models.KindText, UploadedAt: time.Now().UTC(),
	}))

	got, err := c.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got.Chunks)

	chunks := []models.Chunk{{Text: "one"}, {Text: "two"}}
	require.NoError(t, c.UpdateDocumentChunks(ctx, "a", chunks, 0))
	got, err = c.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, chunks, got.Chunks)
	assert.Equal(t, 2, got.ChunksCount)

	assert.ErrorIs(t, c.UpdateDocumentChunks(ctx, "missing", chunks, 0), core.ErrNotFound)

	list, err := c.ListDocumentsByNotebook(ctx, "nb")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, d := range list {
		assert.Nil(t, d.Chunks)
	}

	n, err := c.CountDocuments(ctx, "nb")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.DeleteDocument(ctx, "a"))
	assert.ErrorIs(t, c.DeleteDocument(ctx, "a"), core.ErrNotFound)

	removed, err := c.DeleteDocumentsByNotebook(ctx, "nb")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err = c.CountDocuments(ctx, "nb-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNotebooks_ConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t)

	require.NoError(t, c.CreateNotebook(ctx, &models.Notebook{ID: "nb", UserID: "u1", Name: "Biology"}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.IncrementDocumentCount(ctx, "nb", 1))
		}()
	}
	wg.Wait()
	require.NoError(t, c.IncrementDocumentCount(ctx, "nb", 3))
	require.NoError(t, c.IncrementDocumentCount(ctx, "nb", -1))

	nb, err := c.GetNotebook(ctx, "nb")
	require.NoError(t, err)
	assert.Equal(t, 12, nb.DocumentCount)

	assert.ErrorIs(t, c.IncrementDocumentCount(ctx, "missing", 1), core.ErrNotFound)

	list, err := c.ListNotebooksByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.DeleteNotebook(ctx, "nb"))
	_, err = c.GetNotebook(ctx, "nb")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAnalysisCache(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t)

	_, ok, err := c.GetAnalysis(ctx, "doc", 1)
	require.NoError(t, err)
	assert.False(t, ok, "never computed is a miss, not an error")

	entry := &models.AnalysisEntry{
		DocumentID: "doc",
		PageNumber: 1,
		Result:     json.RawMessage(`{"questions":[]}`),
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, c.PutAnalysis(ctx, entry))

	got, ok, err := c.GetAnalysis(ctx, "doc", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"questions":[]}`, string(got.Result))

	// upsert replaces
	entry.Result = json.RawMessage(`{"questions":[{"type":"2-marks"}]}`)
	require.NoError(t, c.PutAnalysis(ctx, entry))
	got, _, err = c.GetAnalysis(ctx, "doc", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[{"type":"2-marks"}]}`, string(got.Result))

	// expired entries are misses and get purged
	require.NoError(t, c.PutAnalysis(ctx, &models.AnalysisEntry{
		DocumentID: "doc", PageNumber: 2, Result: json.RawMessage(`{}`), ExpiresAt: time.Now().Add(-time.Minute),
	}))
	_, ok, err = c.GetAnalysis(ctx, "doc", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	purged, err := c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	assert.Error(t, c.PutAnalysis(ctx, &models.AnalysisEntry{DocumentID: "doc", PageNumber: 0}))

	require.NoError(t, c.DeleteAnalysisByDocument(ctx, "doc"))
	_, ok, err = c.GetAnalysis(ctx, "doc", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadingProgress(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t)

	_, ok, err := c.GetProgress(ctx, "u1", "doc")
	require.NoError(t, err)
	assert.False(t, ok)

	p := &models.ReadingProgress{
		UserID: "u1", NotebookID: "nb", DocumentID: "doc",
		CurrentPage: 2, TotalPages: 4, CompletedPages: []int{1, 2}, CompletionPercentage: 50,
	}
	require.NoError(t, c.SaveProgress(ctx, p, 45))

	p.CurrentPage = 3
	require.NoError(t, c.SaveProgress(ctx, p, 15))

	got, ok, err := c.GetProgress(ctx, "u1", "doc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.CurrentPage)
	assert.Equal(t, []int{1, 2}, got.CompletedPages)
	assert.InDelta(t, 50.0, got.CompletionPercentage, 0.001)
	assert.Equal(t, int64(60), got.TimeSpentSeconds, "reading time accumulates")

	require.NoError(t, c.SaveProgress(ctx, &models.ReadingProgress{
		UserID: "u2", NotebookID: "nb", DocumentID: "doc", CurrentPage: 1,
	}, 0))
	list, err := c.ListProgressByNotebook(ctx, "u1", "nb")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u1", list[0].UserID)

	assert.Error(t, c.SaveProgress(ctx, &models.ReadingProgress{UserID: "u1", DocumentID: "x"}, 0))

	require.NoError(t, c.DeleteProgressByDocument(ctx, "doc"))
	_, ok, err = c.GetProgress(ctx, "u2", "doc")
	require.NoError(t, err)
	assert.False(t, ok)
}
