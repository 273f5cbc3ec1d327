package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// pdfDocument is the subset of *fitz.Document the extractor reads.
type pdfDocument interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Metadata() map[string]string
	Close() error
}

type pdfOpener func(data []byte) (pdfDocument, error)

func openFitz(data []byte) (pdfDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PDFExtractor reads PDFs with MuPDF, page by page.
type PDFExtractor struct {
	open pdfOpener
}

var _ core.PageExtractor = (*PDFExtractor)(nil)

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{open: openFitz}
}

func (e *PDFExtractor) Kind() models.SourceKind { return models.KindPDF }

// ExtractPages returns the pages that contain text, numbered from 1, along
// with the document's total page count.
func (e *PDFExtractor) ExtractPages(ctx context.Context, src core.Source) ([]core.Page, int, error) {
	doc, err := e.open(src.Data)
	if err != nil {
		return nil, 0, core.NewExtractionError(src.Name(), fmt.Errorf("open pdf: %w", err))
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]core.Page, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, core.NewExtractionError(src.Name(), err)
		}
		text, err := doc.Text(i)
		if err != nil {
			return nil, 0, core.NewExtractionError(src.Name(), fmt.Errorf("page %d: %w", i+1, err))
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, core.Page{Number: i + 1, Text: text})
	}
	return pages, total, nil
}

// ExtractText joins the non-empty pages with newlines.
func (e *PDFExtractor) ExtractText(ctx context.Context, src core.Source) (string, error) {
	pages, _, err := e.ExtractPages(ctx, src)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Text
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

func (e *PDFExtractor) Metadata(_ context.Context, src core.Source) map[string]any {
	meta := map[string]any{"file_type": string(models.KindPDF)}

	doc, err := e.open(src.Data)
	if err != nil {
		meta["error"] = err.Error()
		return meta
	}
	defer doc.Close()

	meta["num_pages"] = doc.NumPage()
	info := doc.Metadata()
	for _, key := range []string{"title", "author", "subject"} {
		if v := strings.TrimSpace(info[key]); v != "" {
			meta[key] = v
		}
	}
	return meta
}
