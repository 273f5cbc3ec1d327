package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	middleware "github.com/hariteja007/NexusLearn-AI/internal/api/middlewares"
	"github.com/hariteja007/NexusLearn-AI/internal/core"
	db "github.com/hariteja007/NexusLearn-AI/internal/core/database"
	"github.com/hariteja007/NexusLearn-AI/internal/core/ingestion_engine"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

type fakeIngestor struct {
	mu         sync.Mutex
	uploads    []ingestion_engine.Upload
	deletedDoc string
	deletedNB  string
}

func (f *fakeIngestor) Ingest(ctx context.Context, nb, filename string, data []byte) (*models.Document, error) {
	res := f.IngestBatch(ctx, nb, []ingestion_engine.Upload{{Filename: filename, Data: data}})
	return res[0].Document, res[0].Err
}

func (f *fakeIngestor) IngestBatch(_ context.Context, nb string, uploads []ingestion_engine.Upload) []ingestion_engine.FileResult {
	f.mu.Lock()
	f.uploads = append(f.uploads, uploads...)
	f.mu.Unlock()
	out := make([]ingestion_engine.FileResult, len(uploads))
	for i, u := range uploads {
		out[i].Filename = u.Filename
		if strings.HasSuffix(u.Filename, ".exe") {
			out[i].Err = core.ErrUnsupportedFormat
			continue
		}
		out[i].Document = &models.Document{ID: "doc-" + u.Filename, NotebookID: nb, Filename: u.Filename}
	}
	return out
}

func (f *fakeIngestor) IngestVideo(_ context.Context, nb, url, title string) (*models.Document, error) {
	if strings.Contains(url, "private") {
		return nil, core.NewExtractionError("youtube", errors.New("no transcript"))
	}
	return &models.Document{ID: "yt", NotebookID: nb, Filename: title, SourceKind: models.KindYouTube,
		Chunks: []models.Chunk{{Text: "hidden"}}}, nil
}

func (f *fakeIngestor) EnsureChunks(_ context.Context, doc *models.Document) []models.Chunk {
	if len(doc.Chunks) > 0 {
		return doc.Chunks
	}
	return []models.Chunk{{Text: "rebuilt"}}
}

func (f *fakeIngestor) IndexHealth(_ context.Context, id string) (*ingestion_engine.IndexHealth, error) {
	return &ingestion_engine.IndexHealth{DocumentID: id, ChunksCount: 2, Indexed: 1}, nil
}

func (f *fakeIngestor) DeleteDocument(_ context.Context, id string) error {
	f.deletedDoc = id
	return nil
}

func (f *fakeIngestor) DeleteNotebook(_ context.Context, id string) error {
	f.deletedNB = id
	return nil
}

type stubSearcher struct{ matches []models.Match }

func (s stubSearcher) Search(context.Context, string, int, models.VectorFilter) ([]models.Match, error) {
	return s.matches, nil
}

type stubLLM struct{}

func (stubLLM) Generate(context.Context, string, string) (string, error) { return " ATP. ", nil }

type env struct {
	store    *db.DatabaseClient
	docs     *services.DocumentService
	ingestor *fakeIngestor
	router   http.Handler
}

// withUser stands in for the JWT middleware.
func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := r.Header.Get("X-Test-User"); uid != "" {
			r = r.WithContext(middleware.WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

func newEnv(t *testing.T, matches ...models.Match) *env {
	t.Helper()
	store, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := &env{store: store, docs: services.NewDocumentService(store), ingestor: &fakeIngestor{}}
	nh := NewNotebookHandler(e.docs, e.ingestor)
	dh := NewDocumentHandler(e.docs, e.ingestor)
	ch := NewChatHandler(e.docs, services.NewRetrievalService(stubSearcher{matches: matches}, stubLLM{}))
	ah := NewAnalysisHandler(e.docs, services.NewAnalysisService(store, nil, nil, stubLLM{}, time.Hour))
	ph := NewProgressHandler(services.NewProgressService(e.docs, store))

	r := chi.NewRouter()
	r.Use(withUser)
	r.Post("/notebooks", nh.Create)
	r.Get("/notebooks", nh.List)
	r.Delete("/notebooks/{notebookID}", nh.Delete)
	r.Post("/notebooks/{notebookID}/documents", dh.Upload)
	r.Get("/notebooks/{notebookID}/documents", dh.List)
	r.Post("/notebooks/{notebookID}/youtube", dh.AddYouTube)
	r.Post("/notebooks/{notebookID}/query", ch.Query)
	r.Post("/notebooks/{notebookID}/ask", ch.Ask)
	r.Get("/documents/{docID}", dh.Get)
	r.Get("/documents/{docID}/chunks", dh.Chunks)
	r.Get("/documents/{docID}/index-health", dh.IndexHealth)
	r.Delete("/documents/{docID}", dh.Delete)
	r.Post("/documents/{docID}/analyze", ah.Analyze)
	r.Post("/reading-progress", ph.Save)
	r.Get("/reading-progress/all/{notebookID}", ph.ForNotebook)
	r.Get("/reading-progress/{notebookID}/{docID}", ph.Get)
	e.router = r
	return e
}

func (e *env) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) notebook(t *testing.T, user string) string {
	t.Helper()
	nb, err := e.docs.CreateNotebook(context.Background(), user, "Biology")
	require.NoError(t, err)
	return nb.ID
}

func (e *env) document(t *testing.T, nbID, id string, kind models.SourceKind, chunks ...models.Chunk) {
	t.Helper()
	require.NoError(t, e.store.InsertDocument(context.Background(), &models.Document{
		ID: id, NotebookID: nbID, Filename: id, SourceKind: kind, UploadedAt: time.Now().UTC(),
		Chunks: chunks, ChunksCount: len(chunks),
	}))
}

func TestNotebooks_CreateListDelete(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "u1", http.MethodPost, "/notebooks", map[string]string{"name": "Physics"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var nb models.Notebook
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nb))
	assert.Equal(t, "u1", nb.UserID)

	rec = e.do(t, "u1", http.MethodPost, "/notebooks", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, "u2", http.MethodGet, "/notebooks", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = e.do(t, "u2", http.MethodDelete, "/notebooks/"+nb.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, e.ingestor.deletedNB)

	rec = e.do(t, "u1", http.MethodDelete, "/notebooks/"+nb.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, nb.ID, e.ingestor.deletedNB)
}

func TestUnauthenticated(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, "", http.MethodGet, "/notebooks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *env) upload(t *testing.T, user, nbID string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/notebooks/"+nbID+"/documents", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestUpload_PerFileResults(t *testing.T) {
	e := newEnv(t)
	nbID := e.notebook(t, "u1")

	rec := e.upload(t, "u1", nbID, map[string]string{"notes.txt": "hello", "virus.exe": "MZ"})
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	var out struct {
		Results []uploadResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Results, 2)
	byName := map[string]uploadResult{}
	for _, r := range out.Results {
		byName[r.Filename] = r
	}
	assert.Equal(t, http.StatusCreated, byName["notes.txt"].Status)
	assert.Equal(t, "doc-notes.txt", byName["notes.txt"].Document.ID)
	assert.Equal(t, http.StatusBadRequest, byName["virus.exe"].Status)
	assert.NotEmpty(t, byName["virus.exe"].Error)

	rec = e.upload(t, "u1", nbID, map[string]string{"only.exe": "MZ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.upload(t, "u2", nbID, map[string]string{"notes.txt": "hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, e.ingestor.uploads, 3)
}

func TestYouTube(t *testing.T) {
	e := newEnv(t)
	nbID := e.notebook(t, "u1")

	rec := e.do(t, "u1", http.MethodPost, "/notebooks/"+nbID+"/youtube", map[string]string{"url": "https://youtu.be/x", "custom_title": "Cells"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hidden")

	rec = e.do(t, "u1", http.MethodPost, "/notebooks/"+nbID+"/youtube", map[string]string{"url": "https://youtu.be/private"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(t, "u1", http.MethodPost, "/notebooks/"+nbID+"/youtube", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocuments_ReadPaths(t *testing.T) {
	e := newEnv(t)
	nbID := e.notebook(t, "u1")
	e.document(t, nbID, "full", models.KindText, models.Chunk{Text: "one"}, models.Chunk{Text: "two"})
	e.document(t, nbID, "legacy", models.KindText)

	rec := e.do(t, "u1", http.MethodGet, "/notebooks/"+nbID+"/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = e.do(t, "u1", http.MethodGet, "/documents/full", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"chunks":[`)

	rec = e.do(t, "u1", http.MethodGet, "/documents/full/chunks", nil)
	assert.JSONEq(t, `{"document_id":"full","chunks":[{"text":"one"},{"text":"two"}],"total":2}`, rec.Body.String())

	rec = e.do(t, "u1", http.MethodGet, "/documents/legacy/chunks", nil)
	assert.JSONEq(t, `{"document_id":"legacy","chunks":[{"text":"rebuilt"}],"total":1}`, rec.Body.String())

	rec = e.do(t, "u1", http.MethodGet, "/documents/full/index-health", nil)
	assert.JSONEq(t, `{"document_id":"full","chunks_count":2,"indexed":1,"healthy":false}`, rec.Body.String())

	rec = e.do(t, "u2", http.MethodGet, "/documents/full", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, "u1", http.MethodGet, "/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, "u1", http.MethodDelete, "/documents/full", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "full", e.ingestor.deletedDoc)
}

func TestChat(t *testing.T) {
	page := 2
	e := newEnv(t, models.Match{ID: "d_0", Score: 0.9, Metadata: models.VectorMetadata{
		DocID: "d", Filename: "cells.pdf", ChunkIndex: 0, Text: "ATP is energy.", PageNumber: &page,
	}})
	nbID := e.notebook(t, "u1")

	rec := e.do(t, "u1", http.MethodPost, "/notebooks/"+nbID+"/query", map[string]any{"query": "energy", "top_k": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	var q struct {
		Results []models.Match `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	require.Len(t, q.Results, 1)
	assert.Equal(t, 2, *q.Results[0].Metadata.PageNumber)

	rec = e.do(t, "u1", http.MethodPost, "/notebooks/"+nbID+"/query", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, "u1", http.MethodPost, "/notebooks/"+nbID+"/ask", map[string]any{"question": "What is ATP?"})
	require.Equal(t, http.StatusOK, rec.Code)
	var ans services.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ans))
	assert.Equal(t, "ATP.", ans.Answer)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "cells.pdf", ans.Sources[0].Filename)

	rec = e.do(t, "u2", http.MethodPost, "/notebooks/"+nbID+"/ask", map[string]any{"question": "What is ATP?"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyze_RejectsNonPDF(t *testing.T) {
	e := newEnv(t)
	nbID := e.notebook(t, "u1")
	e.document(t, nbID, "notes", models.KindText, models.Chunk{Text: "x"})

	req := httptest.NewRequest(http.MethodPost, "/documents/notes/analyze", nil)
	req.Header.Set("X-Test-User", "u1")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(core.ErrUnsupportedFormat))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(core.NewExtractionError("pdf", errors.New("bad xref"))))
	assert.Equal(t, http.StatusNotImplemented, statusFor(core.ErrCapabilityUnavailable))
	assert.Equal(t, http.StatusNotFound, statusFor(core.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestReadingProgress(t *testing.T) {
	e := newEnv(t)
	nbID := e.notebook(t, "u1")
	require.NoError(t, e.store.InsertDocument(context.Background(), &models.Document{
		ID: "cells", NotebookID: nbID, Filename: "cells.pdf", SourceKind: models.KindPDF, UploadedAt: time.Now().UTC(), TotalPages: 4,
	}))

	rec := e.do(t, "u1", http.MethodGet, "/reading-progress/"+nbID+"/cells", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["has_progress"])
	assert.EqualValues(t, 1, got["current_page"])

	rec = e.do(t, "u1", http.MethodPost, "/reading-progress", map[string]any{
		"notebook_id": nbID, "document_id": "cells", "current_page": 3, "mark_completed": true, "time_spent_seconds": 90,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 25, got["completion_percentage"])
	assert.EqualValues(t, 90, got["time_spent_seconds"])

	rec = e.do(t, "u1", http.MethodPost, "/reading-progress", map[string]any{
		"notebook_id": nbID, "document_id": "cells", "current_page": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, "u1", http.MethodGet, "/reading-progress/"+nbID+"/cells", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["has_progress"])
	assert.EqualValues(t, 3, got["current_page"])

	rec = e.do(t, "u1", http.MethodGet, "/reading-progress/all/"+nbID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all struct {
		NotebookID string                              `json:"notebook_id"`
		Progress   map[string]services.DocumentProgress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Equal(t, nbID, all.NotebookID)
	require.Contains(t, all.Progress, "cells")
	assert.Equal(t, "cells.pdf", all.Progress["cells"].Filename)
	assert.Equal(t, []int{3}, all.Progress["cells"].CompletedPages)

	rec = e.do(t, "u2", http.MethodGet, "/reading-progress/all/"+nbID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
