package extractors

import (
	"bytes"
	"context"
	"strings"

	"code.sajari.com/docconv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// TextExtractor handles plain text, Markdown and RTF.
type TextExtractor struct {
	kind       models.SourceKind
	convertRTF func(data []byte) (string, error)
}

var _ core.TextMetadataExtractor = (*TextExtractor)(nil)

func NewTextExtractor(kind models.SourceKind) *TextExtractor {
	return &TextExtractor{kind: kind, convertRTF: docconvRTF}
}

func docconvRTF(data []byte) (string, error) {
	body, _, err := docconv.ConvertRTF(bytes.NewReader(data))
	return body, err
}

func (e *TextExtractor) Kind() models.SourceKind { return e.kind }

// ExtractText decodes the bytes as UTF-8. RTF is converted to plain text;
// if conversion fails the raw content is used instead.
func (e *TextExtractor) ExtractText(_ context.Context, src core.Source) (string, error) {
	content := decodeText(src.Data)
	if e.kind == models.KindRTF {
		if plain, err := e.convertRTF(src.Data); err == nil {
			return strings.TrimSpace(plain), nil
		}
	}
	return strings.TrimSpace(content), nil
}

func (e *TextExtractor) Metadata(ctx context.Context, src core.Source) map[string]any {
	body, err := e.ExtractText(ctx, src)
	if err != nil {
		return map[string]any{"file_type": string(e.kind), "error": err.Error()}
	}
	return e.TextMetadata(src, body)
}

func (e *TextExtractor) TextMetadata(src core.Source, body string) map[string]any {
	meta := map[string]any{"file_type": string(e.kind)}
	textStats(meta, body)
	meta["line_count"] = len(strings.Split(body, "\n"))

	if e.kind == models.KindMarkdown {
		title, headings := markdownHeadings(src.Data)
		if title != "" {
			meta["title"] = title
		}
		meta["heading_count"] = headings
	}
	return meta
}

// markdownHeadings returns the text of the first heading and the number of
// headings in a Markdown document.
func markdownHeadings(source []byte) (string, int) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var (
		title string
		count int
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		count++
		if title == "" {
			title = strings.TrimSpace(inlineText(h, source))
		}
		return ast.WalkSkipChildren, nil
	})
	return title, count
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
