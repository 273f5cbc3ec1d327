package models

import (
	"encoding/json"
	"time"
)

// SourceKind identifies the format a document was ingested from.
type SourceKind string

const (
	KindPDF      SourceKind = "pdf"
	KindText     SourceKind = "txt"
	KindMarkdown SourceKind = "md"
	KindRTF      SourceKind = "rtf"
	KindDocx     SourceKind = "docx"
	KindDoc      SourceKind = "doc"
	KindYouTube  SourceKind = "youtube"
)

// Notebook groups documents belonging to one user.
type Notebook struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	DocumentCount int       `db:"document_count" json:"document_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Chunk is one retrievable window of a document. Its ordinal is its
// position in Document.Chunks.
type Chunk struct {
	Text string `json:"text"`
	Page *int   `json:"page,omitempty"` // 1-indexed; nil when the source has no pages
}

// PageNumber returns the chunk's page, or 0 when it has none.
func (c Chunk) PageNumber() int {
	if c.Page == nil {
		return 0
	}
	return *c.Page
}

// TranscriptEntry is one timed line of a video transcript.
type TranscriptEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`    // seconds
	Duration float64 `json:"duration"` // seconds
}

// Document is an ingested file or video together with its chunk list.
type Document struct {
	ID          string            `db:"id" json:"id"`
	NotebookID  string            `db:"notebook_id" json:"notebook_id"`
	Filename    string            `db:"filename" json:"filename"`
	SourceKind  SourceKind        `db:"source_kind" json:"file_type"`
	UploadedAt  time.Time         `db:"uploaded_at" json:"uploaded_at"`
	Chunks      []Chunk           `db:"chunks" json:"chunks,omitempty"`
	ChunksCount int               `db:"chunks_count" json:"chunks_count"`
	TotalPages  int               `db:"total_pages" json:"total_pages"`
	StoragePath string            `db:"storage_path" json:"storage_path,omitempty"`
	SourceURL   string            `db:"source_url" json:"source_url,omitempty"`
	Transcript  []TranscriptEntry `db:"transcript" json:"transcript,omitempty"`
	Metadata    map[string]any    `db:"metadata" json:"metadata,omitempty"`
}

// VectorMetadata is stored next to every indexed chunk vector.
type VectorMetadata struct {
	DocID      string `json:"doc_id"`
	NotebookID string `json:"notebook_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	PageNumber *int   `json:"page_number,omitempty"`
}

// IndexedVector is a chunk embedding keyed by "{document_id}_{ordinal}".
type IndexedVector struct {
	ID       string
	Vector   []float32
	Metadata VectorMetadata
}

// Match is one similarity search hit.
type Match struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}

// VectorFilter narrows index queries, deletes and counts. Empty fields do
// not constrain.
type VectorFilter struct {
	NotebookID  string
	DocumentIDs []string
	PageNumbers []int
}

// IsEmpty reports whether the filter constrains nothing.
func (f VectorFilter) IsEmpty() bool {
	return f.NotebookID == "" && len(f.DocumentIDs) == 0 && len(f.PageNumbers) == 0
}

// AnalysisEntry is a cached per-page analysis result.
type AnalysisEntry struct {
	DocumentID string          `db:"document_id" json:"document_id"`
	PageNumber int             `db:"page_number" json:"page_number"`
	Result     json.RawMessage `db:"result" json:"result"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	ExpiresAt  time.Time       `db:"expires_at" json:"expires_at"`
}

// ReadingProgress tracks where a user is in one document. Pages are 1-indexed.
type ReadingProgress struct {
	UserID               string    `db:"user_id" json:"user_id"`
	NotebookID           string    `db:"notebook_id" json:"notebook_id"`
	DocumentID           string    `db:"document_id" json:"document_id"`
	CurrentPage          int       `db:"current_page" json:"current_page"`
	TotalPages           int       `db:"total_pages" json:"total_pages"`
	CompletedPages       []int     `db:"completed_pages" json:"completed_pages"`
	CompletionPercentage float64   `db:"completion_percentage" json:"completion_percentage"`
	TimeSpentSeconds     int64     `db:"time_spent_seconds" json:"time_spent_seconds"`
	LastReadAt           time.Time `db:"last_read_at" json:"last_read_at"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
