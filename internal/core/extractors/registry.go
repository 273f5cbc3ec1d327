package extractors

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// Registry maps lowercase file extensions to extractors. The set is closed:
// anything not registered is rejected with core.ErrUnsupportedFormat.
type Registry struct {
	byExt map[string]core.Extractor
}

// NewRegistry registers each extractor under the extension equal to its kind.
func NewRegistry(exts ...core.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]core.Extractor, len(exts))}
	for _, e := range exts {
		r.byExt[string(e.Kind())] = e
	}
	return r
}

// Default returns the registry for every supported upload format.
func Default() *Registry {
	return NewRegistry(
		NewPDFExtractor(),
		NewTextExtractor(models.KindText),
		NewTextExtractor(models.KindMarkdown),
		NewTextExtractor(models.KindRTF),
		NewDocxExtractor(),
		NewDocExtractor(),
	)
}

// Extension returns the lowercase extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ForFilename selects the extractor for filename by its extension.
func (r *Registry) ForFilename(filename string) (core.Extractor, error) {
	ext := Extension(filename)
	if e, ok := r.byExt[ext]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q (supported: %s)", core.ErrUnsupportedFormat, filename, strings.Join(r.Supported(), ", "))
}

// ForKind returns the extractor registered for a stored document kind.
func (r *Registry) ForKind(kind models.SourceKind) (core.Extractor, bool) {
	e, ok := r.byExt[string(kind)]
	return e, ok
}

// Supported lists the registered extensions in sorted order.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}
