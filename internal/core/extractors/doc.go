package extractors

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"code.sajari.com/docconv"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// wvText is the external converter docconv shells out to for .doc files.
const wvText = "wvText"

// DocExtractor reads legacy binary Word documents through docconv.
type DocExtractor struct {
	lookPath func(string) (string, error)
	convert  func(data []byte) (string, error)
}

var _ core.TextMetadataExtractor = (*DocExtractor)(nil)

func NewDocExtractor() *DocExtractor {
	return &DocExtractor{lookPath: exec.LookPath, convert: docconvDoc}
}

func docconvDoc(data []byte) (string, error) {
	body, _, err := docconv.ConvertDoc(bytes.NewReader(data))
	return body, err
}

func (e *DocExtractor) Kind() models.SourceKind { return models.KindDoc }

// Available reports whether the converter is installed.
func (e *DocExtractor) Available() bool {
	_, err := e.lookPath(wvText)
	return err == nil
}

func (e *DocExtractor) ExtractText(_ context.Context, src core.Source) (string, error) {
	if !e.Available() {
		return "", fmt.Errorf("%w: legacy Word (.doc) files need %s installed; convert the file to .docx instead",
			core.ErrCapabilityUnavailable, wvText)
	}
	body, err := e.convert(src.Data)
	if err != nil {
		return "", core.NewExtractionError(src.Name(), err)
	}
	return strings.TrimSpace(decodeText([]byte(body))), nil
}

func (e *DocExtractor) Metadata(ctx context.Context, src core.Source) map[string]any {
	body, err := e.ExtractText(ctx, src)
	if err != nil {
		return map[string]any{"file_type": string(models.KindDoc), "error": err.Error()}
	}
	return e.TextMetadata(src, body)
}

// TextMetadata computes the metadata from converted text without running
// the converter again.
func (e *DocExtractor) TextMetadata(_ core.Source, text string) map[string]any {
	meta := map[string]any{"file_type": string(models.KindDoc)}
	textStats(meta, text)
	return meta
}
