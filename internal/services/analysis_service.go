package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	objectclient "github.com/hariteja007/NexusLearn-AI/internal/core/object-client"
	"github.com/hariteja007/NexusLearn-AI/internal/metrics"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// maxPageRunes caps the page text sent to the model.
const maxPageRunes = 2000

var defaultQuestionTypes = []string{"2-marks", "5-marks", "10-marks"}

const analysisSystemPrompt = "You are an expert educational content analyzer. Always respond with valid JSON only."

// Question is one generated exam question.
type Question struct {
	Type              string `json:"type"`
	Question          string `json:"question"`
	Answer            string `json:"answer"`
	AnswerTextSnippet string `json:"answer_text_snippet"`
	Page              int    `json:"page"`
}

type AnalysisResult struct {
	DocumentID string     `json:"document_id"`
	TotalPages int        `json:"total_pages"`
	Questions  []Question `json:"questions"`
}

// pageAnalysis is what the model returns, and what the cache stores, for one page.
type pageAnalysis struct {
	Questions []Question `json:"questions"`
}

// AnalysisService generates study questions page by page and caches each
// page's result.
type AnalysisService struct {
	cache core.AnalysisCache
	blobs core.BlobStore
	pages core.PageExtractor
	llm   core.LLMProvider
	ttl   time.Duration
	now   func() time.Time
}

func NewAnalysisService(cache core.AnalysisCache, blobs core.BlobStore, pages core.PageExtractor, llm core.LLMProvider, ttl time.Duration) *AnalysisService {
	return &AnalysisService{cache: cache, blobs: blobs, pages: pages, llm: llm, ttl: ttl, now: time.Now}
}

// Analyze returns questions for every non-empty page of a PDF document.
func (s *AnalysisService) Analyze(ctx context.Context, doc *models.Document, questionTypes []string) (*AnalysisResult, error) {
	if doc.SourceKind != models.KindPDF {
		return nil, fmt.Errorf("%w: only PDF documents can be analyzed", core.ErrUnsupportedFormat)
	}
	types := questionTypes
	if len(types) == 0 {
		types = defaultQuestionTypes
	}

	key := doc.StoragePath
	if key == "" {
		key = objectclient.DocumentKey(doc.NotebookID, doc.ID, string(models.KindPDF))
	}
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load pdf: %w", err)
	}

	pages, total, err := s.pages.ExtractPages(ctx, core.Source{Filename: doc.Filename, Data: data})
	if err != nil {
		return nil, err
	}

	out := &AnalysisResult{DocumentID: doc.ID, TotalPages: total, Questions: []Question{}}
	for _, p := range pages {
		text := normalizePage(p.Text)
		if text == "" {
			continue
		}
		res, err := s.analyzePage(ctx, doc.ID, p.Number, text, types)
		if err != nil {
			return nil, err
		}
		for _, q := range res.Questions {
			if q.Type == "" {
				q.Type = "2-marks"
			}
			q.Page = p.Number
			out.Questions = append(out.Questions, q)
		}
	}
	return out, nil
}

func (s *AnalysisService) analyzePage(ctx context.Context, docID string, page int, text string, types []string) (*pageAnalysis, error) {
	log := logrus.WithFields(logrus.Fields{"doc_id": docID, "page": page})

	entry, ok, err := s.cache.GetAnalysis(ctx, docID, page)
	if err != nil {
		log.WithError(err).Warn("analysis cache lookup failed")
	}
	if ok {
		var cached pageAnalysis
		if err := json.Unmarshal(entry.Result, &cached); err == nil {
			metrics.AnalysisCacheHits.Add(1)
			return &cached, nil
		}
		log.Warn("cached analysis unreadable; regenerating")
	}
	metrics.AnalysisCacheMisses.Add(1)

	raw, err := s.llm.Generate(ctx, analysisSystemPrompt, analysisPrompt(text, types))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("page analysis failed")
		return &pageAnalysis{}, nil
	}

	res, err := parseAnalysis(raw)
	if err != nil {
		log.WithError(err).Warn("model returned invalid JSON")
		res = &pageAnalysis{Questions: []Question{}}
	}

	body, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.cache.PutAnalysis(ctx, &models.AnalysisEntry{
		DocumentID: docID,
		PageNumber: page,
		Result:     body,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}); err != nil {
		log.WithError(err).Warn("analysis not cached")
	}
	return res, nil
}

// normalizePage collapses whitespace runs to single spaces and caps the
// result at maxPageRunes.
func normalizePage(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > maxPageRunes {
		text = string(r[:maxPageRunes])
	}
	return text
}

// parseAnalysis accepts the model's JSON with or without a markdown fence.
func parseAnalysis(raw string) (*pageAnalysis, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		parts := strings.Split(raw, "```")
		raw = strings.TrimPrefix(parts[1], "json")
		raw = strings.TrimSpace(raw)
	}
	var res pageAnalysis
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, err
	}
	if res.Questions == nil {
		res.Questions = []Question{}
	}
	return &res, nil
}

func analysisPrompt(text string, types []string) string {
	var b strings.Builder
	b.WriteString("Analyze this educational content and generate important exam questions.\n\n")
	b.WriteString("Generate questions that test understanding of this content:\n")
	if slices.Contains(types, "2-marks") {
		b.WriteString("- 1 x 2-mark question (definition/recall based)\n")
	}
	if slices.Contains(types, "5-marks") {
		b.WriteString("- 1 x 5-mark question (explanation/application based)\n")
	}
	if slices.Contains(types, "10-marks") {
		b.WriteString("- 1 x 10-mark question (analysis/comprehensive)\n")
	}
	b.WriteString(`
For each question provide:
- type: Question mark type (2-marks, 5-marks, or 10-marks)
- question: The actual question
- answer: Brief answer (2-3 sentences for 2m, 4-5 sentences for 5m, paragraph for 10m)
- answer_text_snippet: Exact text from content that contains the answer (for highlighting)

Content:
`)
	b.WriteString(text)
	b.WriteString(`

Respond ONLY with valid JSON (no markdown, no code blocks):
{
  "questions": [
    {
      "type": "2-marks",
      "question": "...",
      "answer": "...",
      "answer_text_snippet": "exact text from content containing the answer"
    }
  ]
}`)
	return b.String()
}
