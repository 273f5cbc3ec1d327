package core

import (
	"context"

	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// Source is the input handed to an extractor: raw bytes for uploaded files,
// a URL for remote media.
type Source struct {
	Filename string
	Data     []byte
	URL      string
}

// Name is used in logs and error messages.
func (s Source) Name() string {
	if s.Filename != "" {
		return s.Filename
	}
	return s.URL
}

// Page is the text of one page, numbered from 1 in the original document.
type Page struct {
	Number int
	Text   string
}

// Extractor converts one source format to plain text. Metadata never fails;
// problems are recorded under the "error" key.
type Extractor interface {
	Kind() models.SourceKind
	ExtractText(ctx context.Context, src Source) (string, error)
	Metadata(ctx context.Context, src Source) map[string]any
}

// PageExtractor is implemented by extractors for paginated formats. It returns
// the non-empty pages in order and the total page count of the source.
type PageExtractor interface {
	Extractor
	ExtractPages(ctx context.Context, src Source) (pages []Page, total int, err error)
}

// TextMetadataExtractor builds metadata from text that was already
// extracted. Only extractors without pages implement it.
type TextMetadataExtractor interface {
	Extractor
	TextMetadata(src Source, text string) map[string]any
}

// TranscriptExtractor is implemented by extractors for timed media.
// FetchVideo returns the timed transcript and the source metadata from a
// single lookup.
type TranscriptExtractor interface {
	Extractor
	FetchVideo(ctx context.Context, url string) ([]models.TranscriptEntry, map[string]any, error)
}
