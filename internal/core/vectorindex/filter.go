package vectorindex

import (
	"slices"
	"strconv"

	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

const (
	keyDocID      = "doc_id"
	keyNotebookID = "notebook_id"
	keyFilename   = "filename"
	keyFileType   = "file_type"
	keyChunkIndex = "chunk_index"
	keyText       = "text"
	keyPage       = "page_number"
)

func metadataToMap(m models.VectorMetadata) map[string]string {
	md := map[string]string{
		keyDocID:      m.DocID,
		keyNotebookID: m.NotebookID,
		keyFilename:   m.Filename,
		keyFileType:   m.FileType,
		keyChunkIndex: strconv.Itoa(m.ChunkIndex),
		keyText:       m.Text,
	}
	if m.PageNumber != nil {
		md[keyPage] = strconv.Itoa(*m.PageNumber)
	}
	return md
}

func mapToMetadata(m map[string]string) models.VectorMetadata {
	idx, _ := strconv.Atoi(m[keyChunkIndex])
	out := models.VectorMetadata{
		DocID:      m[keyDocID],
		NotebookID: m[keyNotebookID],
		Filename:   m[keyFilename],
		FileType:   m[keyFileType],
		ChunkIndex: idx,
		Text:       m[keyText],
	}
	if v, ok := m[keyPage]; ok {
		if p, err := strconv.Atoi(v); err == nil {
			out.PageNumber = &p
		}
	}
	return out
}

// whereClause keeps the equality constraints chromem can evaluate itself.
// Lists of more than one value are left to matches.
func whereClause(f models.VectorFilter) map[string]string {
	where := map[string]string{}
	if f.NotebookID != "" {
		where[keyNotebookID] = f.NotebookID
	}
	if len(f.DocumentIDs) == 1 {
		where[keyDocID] = f.DocumentIDs[0]
	}
	if len(f.PageNumbers) == 1 {
		where[keyPage] = strconv.Itoa(f.PageNumbers[0])
	}
	if len(where) == 0 {
		return nil
	}
	return where
}

// matches reports whether metadata satisfies every constraint of f.
func matches(f models.VectorFilter, md models.VectorMetadata) bool {
	if f.NotebookID != "" && md.NotebookID != f.NotebookID {
		return false
	}
	if len(f.DocumentIDs) > 0 && !slices.Contains(f.DocumentIDs, md.DocID) {
		return false
	}
	if len(f.PageNumbers) > 0 && (md.PageNumber == nil || !slices.Contains(f.PageNumbers, *md.PageNumber)) {
		return false
	}
	return true
}

// expand splits f into filters that hold at most one document and one page,
// each expressible as a single where clause.
func expand(f models.VectorFilter) []models.VectorFilter {
	docs := f.DocumentIDs
	if len(docs) == 0 {
		docs = []string{""}
	}
	pages := f.PageNumbers
	if len(pages) == 0 {
		pages = []int{0}
	}

	out := make([]models.VectorFilter, 0, len(docs)*len(pages))
	for _, d := range docs {
		for _, p := range pages {
			g := models.VectorFilter{NotebookID: f.NotebookID}
			if d != "" {
				g.DocumentIDs = []string{d}
			}
			if p != 0 {
				g.PageNumbers = []int{p}
			}
			out = append(out, g)
		}
	}
	return out
}
