package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

func TestRegistry_ForFilename(t *testing.T) {
	r := Default()

	tests := []struct {
		name string
		want models.SourceKind
	}{
		{"lecture.pdf", models.KindPDF},
		{"LECTURE.PDF", models.KindPDF},
		{"notes.txt", models.KindText},
		{"readme.md", models.KindMarkdown},
		{"letter.rtf", models.KindRTF},
		{"essay.docx", models.KindDocx},
		{"old.DOC", models.KindDoc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := r.ForFilename(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ext.Kind())
		})
	}

	for _, name := range []string{"report.xlsx", "noext", "slides.pptx"} {
		_, err := r.ForFilename(name)
		assert.ErrorIs(t, err, core.ErrUnsupportedFormat, name)
		assert.Contains(t, err.Error(), "supported: doc, docx, md, pdf, rtf, txt", name)
	}
	assert.Equal(t, []string{"doc", "docx", "md", "pdf", "rtf", "txt"}, r.Supported())
}

func TestTextExtractor(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and drops invalid utf8", func(t *testing.T) {
		e := NewTextExtractor(models.KindText)
		got, err := e.ExtractText(ctx, core.Source{Data: []byte("  hello \xff world \n")})
		require.NoError(t, err)
		assert.Equal(t, "hello  world", got)
	})

	t.Run("rtf falls back to raw content", func(t *testing.T) {
		e := NewTextExtractor(models.KindRTF)
		e.convertRTF = func([]byte) (string, error) { return "", errors.New("unrtf missing") }
		got, err := e.ExtractText(ctx, core.Source{Data: []byte(`{\rtf1 raw}`)})
		require.NoError(t, err)
		assert.Equal(t, `{\rtf1 raw}`, got)
	})

	t.Run("rtf converted", func(t *testing.T) {
		e := NewTextExtractor(models.KindRTF)
		e.convertRTF = func([]byte) (string, error) { return " plain \n", nil }
		got, err := e.ExtractText(ctx, core.Source{Data: []byte(`{\rtf1 plain}`)})
		require.NoError(t, err)
		assert.Equal(t, "plain", got)
	})

	t.Run("markdown metadata", func(t *testing.T) {
		e := NewTextExtractor(models.KindMarkdown)
		src := core.Source{Data: []byte("intro line\n\n# Cell *Biology*\n\ntext\n\n## Mitosis\n")}
		meta := e.Metadata(ctx, src)
		assert.Equal(t, "Cell Biology", meta["title"])
		assert.Equal(t, 2, meta["heading_count"])
		assert.Equal(t, "md", meta["file_type"])
		assert.Equal(t, 7, meta["line_count"])
	})
}

func TestDocxExtractor(t *testing.T) {
	data := buildDocx(t, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">   </w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t> </w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Score</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Ada</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>99</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	e := NewDocxExtractor()
	src := core.Source{Filename: "essay.docx", Data: data}

	got, err := e.ExtractText(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph\nName | Score\nAda | 99", got)

	meta := e.Metadata(context.Background(), src)
	assert.Equal(t, 3, meta["num_paragraphs"])
	assert.Equal(t, 1, meta["num_tables"])
	assert.Equal(t, "Study Notes", meta["title"])
	assert.Equal(t, "Ada", meta["author"])
	assert.NotContains(t, meta, "error")
}

func TestDocxExtractor_NotAZip(t *testing.T) {
	_, err := NewDocxExtractor().ExtractText(context.Background(), core.Source{Filename: "x.docx", Data: []byte("nope")})
	assert.ErrorIs(t, err, core.ErrExtraction)

	meta := NewDocxExtractor().Metadata(context.Background(), core.Source{Data: []byte("nope")})
	assert.Contains(t, meta, "error")
}

func TestDocExtractor_ConverterMissing(t *testing.T) {
	converted := false
	e := &DocExtractor{
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
		convert: func([]byte) (string, error) {
			converted = true
			return "", nil
		},
	}

	_, err := e.ExtractText(context.Background(), core.Source{Filename: "old.doc"})
	require.ErrorIs(t, err, core.ErrCapabilityUnavailable)
	assert.False(t, converted)
}

func TestDocExtractor_Converts(t *testing.T) {
	e := &DocExtractor{
		lookPath: func(string) (string, error) { return "/usr/bin/wvText", nil },
		convert:  func([]byte) (string, error) { return "  legacy text \n", nil },
	}
	got, err := e.ExtractText(context.Background(), core.Source{Filename: "old.doc"})
	require.NoError(t, err)
	assert.Equal(t, "legacy text", got)
}

func TestDocExtractor_TextMetadataSkipsConverter(t *testing.T) {
	converts := 0
	e := &DocExtractor{
		lookPath: func(string) (string, error) { return "/usr/bin/wvText", nil },
		convert: func([]byte) (string, error) {
			converts++
			return "cells divide by mitosis", nil
		},
	}
	src := core.Source{Filename: "old.doc"}

	body, err := e.ExtractText(context.Background(), src)
	require.NoError(t, err)
	meta := e.TextMetadata(src, body)

	assert.Equal(t, 1, converts)
	assert.Equal(t, "doc", meta["file_type"])
	assert.Equal(t, 4, meta["word_count"])
	assert.Equal(t, 23, meta["char_count"])

	assert.Equal(t, meta, e.Metadata(context.Background(), src))
	assert.Equal(t, 2, converts)
}

type fakePDF struct {
	pages []string
	meta  map[string]string
}

func (f *fakePDF) NumPage() int { return len(f.pages) }
func (f *fakePDF) Text(i int) (string, error) {
	return f.pages[i], nil
}
func (f *fakePDF) Metadata() map[string]string { return f.meta }
func (f *fakePDF) Close() error                { return nil }

func TestPDFExtractor(t *testing.T) {
	doc := &fakePDF{
		pages: []string{"  page one  ", " \n\t ", "page three"},
		meta:  map[string]string{"title": "Biology", "author": ""},
	}
	e := &PDFExtractor{open: func([]byte) (pdfDocument, error) { return doc, nil }}
	ctx := context.Background()

	pages, total, err := e.ExtractPages(ctx, core.Source{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []core.Page{{Number: 1, Text: "page one"}, {Number: 3, Text: "page three"}}, pages)

	text, err := e.ExtractText(ctx, core.Source{})
	require.NoError(t, err)
	assert.Equal(t, "page one\npage three", text)

	meta := e.Metadata(ctx, core.Source{})
	assert.Equal(t, 3, meta["num_pages"])
	assert.Equal(t, "Biology", meta["title"])
	assert.NotContains(t, meta, "author")
}

func TestPDFExtractor_OpenFails(t *testing.T) {
	e := &PDFExtractor{open: func([]byte) (pdfDocument, error) { return nil, errors.New("corrupt") }}

	_, _, err := e.ExtractPages(context.Background(), core.Source{Filename: "bad.pdf"})
	assert.ErrorIs(t, err, core.ErrExtraction)

	meta := e.Metadata(context.Background(), core.Source{})
	assert.Equal(t, "corrupt", meta["error"])
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	w, err = zw.Create("docProps/core.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Study Notes</dc:title>
  <dc:creator>Ada</dc:creator>
</cp:coreProperties>`))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}
