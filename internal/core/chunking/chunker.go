package chunking

import (
	"fmt"
	"strings"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits text into fixed-size character windows that overlap by a
// fixed amount. Sizes are counted in runes.
type Chunker struct {
	size    int
	overlap int
}

// New returns a chunker, rejecting configurations whose stride would not
// advance (overlap >= size).
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", core.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", core.ErrInvalidChunkConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", core.ErrInvalidChunkConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a 1000/200 chunker.
func Default() *Chunker {
	return &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the windows [k*stride, k*stride+size) of text, stopping after
// the first window that reaches the end. Each window is trimmed and dropped
// when nothing is left.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	stride := c.size - c.overlap
	out := make([]string, 0, n/stride+1)
	for start := 0; start < n; start += stride {
		end := start + c.size
		if end > n {
			end = n
		}

		if window := strings.TrimSpace(string(runes[start:end])); window != "" {
			out = append(out, window)
		}

		if end == n {
			break
		}
	}
	return out
}
