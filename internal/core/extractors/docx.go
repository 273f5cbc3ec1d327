package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// DocxExtractor reads Office Open XML word documents.
type DocxExtractor struct{}

func NewDocxExtractor() *DocxExtractor { return &DocxExtractor{} }

func (e *DocxExtractor) Kind() models.SourceKind { return models.KindDocx }

// ExtractText returns the non-empty body paragraphs in order, followed by
// every table row as its non-empty cells joined with " | ".
func (e *DocxExtractor) ExtractText(_ context.Context, src core.Source) (string, error) {
	body, err := parseDocx(src.Data)
	if err != nil {
		return "", core.NewExtractionError(src.Name(), err)
	}
	return body.text(), nil
}

func (e *DocxExtractor) Metadata(_ context.Context, src core.Source) map[string]any {
	meta := map[string]any{"file_type": string(models.KindDocx)}

	body, err := parseDocx(src.Data)
	if err != nil {
		meta["error"] = err.Error()
		return meta
	}
	meta["num_paragraphs"] = body.paragraphCount
	meta["num_tables"] = len(body.tables)
	for k, v := range body.props {
		meta[k] = v
	}
	textStats(meta, body.text())
	return meta
}

type docxBody struct {
	paragraphs     []string
	paragraphCount int
	tables         [][][]string // table -> row -> cell
	props          map[string]string
}

func (b *docxBody) text() string {
	parts := make([]string, 0, len(b.paragraphs))
	for _, p := range b.paragraphs {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	for _, table := range b.tables {
		for _, row := range table {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				parts = append(parts, strings.Join(cells, " | "))
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func parseDocx(data []byte) (*docxBody, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var body *docxBody
	props := map[string]string{}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			body, err = readZipXML(f, parseDocumentXML)
			if err != nil {
				return nil, fmt.Errorf("parse document.xml: %w", err)
			}
		case "docProps/core.xml":
			// core properties are optional
			if p, err := readZipXML(f, parseCoreProps); err == nil {
				props = p
			}
		}
	}
	if body == nil {
		return nil, errors.New("word/document.xml not found")
	}
	body.props = props
	return body, nil
}

func readZipXML[T any](f *zip.File, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := f.Open()
	if err != nil {
		return zero, err
	}
	defer rc.Close()
	return parse(rc)
}

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// parseDocumentXML walks the document body. Paragraphs directly under the
// body are collected as paragraphs; paragraphs inside table cells become
// the cell's text.
func parseDocumentXML(r io.Reader) (*docxBody, error) {
	dec := xml.NewDecoder(r)
	body := &docxBody{}

	var (
		tableDepth int
		inText     bool
		para       strings.Builder
		cell       strings.Builder
		cellParas  int
		row        []string
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					body.tables = append(body.tables, nil)
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
					cellParas = 0
				}
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}

		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 {
					body.paragraphs = append(body.paragraphs, para.String())
					body.paragraphCount++
				} else {
					if cellParas > 0 {
						cell.WriteByte('\n')
					}
					cell.WriteString(para.String())
					cellParas++
				}
				para.Reset()
			case "tc":
				if tableDepth == 1 {
					row = append(row, cell.String())
				}
			case "tr":
				if tableDepth == 1 {
					last := len(body.tables) - 1
					body.tables[last] = append(body.tables[last], row)
				}
			case "tbl":
				tableDepth--
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return body, nil
}

type coreProperties struct {
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
	Creator  string `xml:"creator"`
	Keywords string `xml:"keywords"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

func parseCoreProps(r io.Reader) (map[string]string, error) {
	var cp coreProperties
	if err := xml.NewDecoder(r).Decode(&cp); err != nil {
		return nil, err
	}
	props := map[string]string{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			props[k] = v
		}
	}
	set("title", cp.Title)
	set("author", cp.Creator)
	set("subject", cp.Subject)
	set("keywords", cp.Keywords)
	set("created", cp.Created)
	set("modified", cp.Modified)
	return props, nil
}
