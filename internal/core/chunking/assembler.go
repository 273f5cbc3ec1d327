package chunking

import (
	"context"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// Result is the output of assembling one source.
type Result struct {
	Chunks     []models.Chunk
	TotalPages int
	Text       string // extracted text; empty for paginated sources
}

// Assembler produces the ordered chunk list for a source, tagging chunks with
// their page when the extractor can read pages.
type Assembler struct {
	chunker *Chunker
}

func NewAssembler(c *Chunker) *Assembler {
	if c == nil {
		c = Default()
	}
	return &Assembler{chunker: c}
}

// Assemble extracts src with ext and chunks it. Paginated extractors are
// chunked page by page so no window spans two pages.
func (a *Assembler) Assemble(ctx context.Context, ext core.Extractor, src core.Source) (*Result, error) {
	if pe, ok := ext.(core.PageExtractor); ok {
		pages, total, err := pe.ExtractPages(ctx, src)
		if err != nil {
			return nil, err
		}
		return a.AssemblePages(pages, total), nil
	}

	text, err := ext.ExtractText(ctx, src)
	if err != nil {
		return nil, err
	}
	return a.AssembleText(text), nil
}

// AssembleText chunks text that has no page structure.
func (a *Assembler) AssembleText(text string) *Result {
	windows := a.chunker.Split(text)
	chunks := make([]models.Chunk, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, models.Chunk{Text: w})
	}
	return &Result{Chunks: chunks, Text: text}
}

// AssemblePages chunks each page independently and concatenates the results
// in page order. Page numbers are kept as given, so skipped pages leave gaps.
func (a *Assembler) AssemblePages(pages []core.Page, total int) *Result {
	res := &Result{TotalPages: total}
	for _, p := range pages {
		for _, w := range a.chunker.Split(p.Text) {
			page := p.Number
			res.Chunks = append(res.Chunks, models.Chunk{Text: w, Page: &page})
		}
	}
	return res
}
