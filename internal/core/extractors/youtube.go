package extractors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
}

// preferredCaptionLangs are tried in order before falling back to the first track.
var preferredCaptionLangs = []string{"en", "en-US", "en-GB"}

var errNoTranscript = errors.New("no transcript available for this video")

// VideoID extracts the video id from watch, short, embed and /v/ URLs.
func VideoID(url string) (string, error) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not extract video id from url %q", url)
}

// VideoInfo is the metadata of one video.
type VideoInfo struct {
	ID          string
	Title       string
	Author      string
	ChannelID   string
	Description string
	Thumbnail   string
	Duration    time.Duration
	Views       int
	PublishDate time.Time
	Languages   []string // caption track language codes

	video *youtube.Video
}

// VideoClient looks up videos and their caption tracks.
type VideoClient interface {
	Lookup(ctx context.Context, videoID string) (*VideoInfo, error)
	Transcript(ctx context.Context, info *VideoInfo, lang string) ([]models.TranscriptEntry, error)
}

type kkdaiClient struct {
	client *youtube.Client
}

// NewVideoClient returns a VideoClient backed by github.com/kkdai/youtube.
func NewVideoClient(httpClient *http.Client) VideoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &kkdaiClient{client: &youtube.Client{HTTPClient: httpClient}}
}

func (c *kkdaiClient) Lookup(ctx context.Context, videoID string) (*VideoInfo, error) {
	v, err := c.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, err
	}
	info := &VideoInfo{
		ID:          v.ID,
		Title:       v.Title,
		Author:      v.Author,
		ChannelID:   v.ChannelID,
		Description: v.Description,
		Duration:    v.Duration,
		Views:       v.Views,
		PublishDate: v.PublishDate,
		video:       v,
	}
	if n := len(v.Thumbnails); n > 0 {
		info.Thumbnail = v.Thumbnails[n-1].URL
	}
	for _, track := range v.CaptionTracks {
		info.Languages = append(info.Languages, track.LanguageCode)
	}
	return info, nil
}

func (c *kkdaiClient) Transcript(ctx context.Context, info *VideoInfo, lang string) ([]models.TranscriptEntry, error) {
	if info.video == nil {
		return nil, errors.New("video not loaded")
	}
	segments, err := c.client.GetTranscriptCtx(ctx, info.video, lang)
	if err != nil {
		return nil, err
	}
	entries := make([]models.TranscriptEntry, 0, len(segments))
	for _, s := range segments {
		entries = append(entries, models.TranscriptEntry{
			Text:     s.Text,
			Start:    float64(s.StartMs) / 1000,
			Duration: float64(s.Duration) / 1000,
		})
	}
	return entries, nil
}

// YouTubeExtractor turns a video URL into its transcript text.
type YouTubeExtractor struct {
	client VideoClient
}

var _ core.TranscriptExtractor = (*YouTubeExtractor)(nil)

func NewYouTubeExtractor(client VideoClient) *YouTubeExtractor {
	if client == nil {
		client = NewVideoClient(nil)
	}
	return &YouTubeExtractor{client: client}
}

func (e *YouTubeExtractor) Kind() models.SourceKind { return models.KindYouTube }

// FetchVideo looks the video up once and returns its transcript in the
// preferred language together with its metadata.
func (e *YouTubeExtractor) FetchVideo(ctx context.Context, url string) ([]models.TranscriptEntry, map[string]any, error) {
	id, err := VideoID(url)
	if err != nil {
		return nil, nil, core.NewExtractionError(url, err)
	}
	info, err := e.client.Lookup(ctx, id)
	if err != nil {
		return nil, nil, core.NewExtractionError(url, fmt.Errorf("lookup video %s: %w", id, err))
	}
	lang, ok := pickCaptionLang(info.Languages)
	if !ok {
		return nil, nil, core.NewExtractionError(url, errNoTranscript)
	}
	entries, err := e.client.Transcript(ctx, info, lang)
	if err != nil {
		return nil, nil, core.NewExtractionError(url, fmt.Errorf("fetch %s transcript: %w", lang, err))
	}
	return entries, videoMetadata(url, id, info), nil
}

func (e *YouTubeExtractor) ExtractText(ctx context.Context, src core.Source) (string, error) {
	entries, _, err := e.FetchVideo(ctx, src.URL)
	if err != nil {
		return "", err
	}
	return JoinTranscript(entries), nil
}

// Metadata never fails; lookup problems are recorded under "error".
func (e *YouTubeExtractor) Metadata(ctx context.Context, src core.Source) map[string]any {
	id, err := VideoID(src.URL)
	if err != nil {
		meta := videoMetadata(src.URL, "", nil)
		meta["error"] = err.Error()
		return meta
	}
	info, err := e.client.Lookup(ctx, id)
	if err != nil {
		meta := videoMetadata(src.URL, id, nil)
		meta["error"] = err.Error()
		return meta
	}
	return videoMetadata(src.URL, id, info)
}

// videoMetadata builds the metadata map; info may be nil when the lookup failed.
func videoMetadata(url, id string, info *VideoInfo) map[string]any {
	meta := map[string]any{
		"file_type":  string(models.KindYouTube),
		"source_url": url,
	}
	if id != "" {
		meta["video_id"] = id
	}
	if info == nil {
		return meta
	}
	meta["title"] = info.Title
	meta["duration"] = int(info.Duration.Seconds())
	meta["author"] = info.Author
	meta["channel_id"] = info.ChannelID
	meta["view_count"] = info.Views
	meta["thumbnail"] = info.Thumbnail
	meta["description"] = info.Description
	if !info.PublishDate.IsZero() {
		meta["upload_date"] = info.PublishDate.Format("20060102")
	}
	_, meta["has_transcript"] = pickCaptionLang(info.Languages)
	return meta
}

// JoinTranscript concatenates entry texts with single spaces.
func JoinTranscript(entries []models.TranscriptEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func pickCaptionLang(langs []string) (string, bool) {
	for _, want := range preferredCaptionLangs {
		for _, have := range langs {
			if have == want {
				return have, true
			}
		}
	}
	if len(langs) > 0 {
		return langs[0], true
	}
	return "", false
}
