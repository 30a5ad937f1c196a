package extract

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/lore/core"
)

var youtubeIDExprs = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/(?:watch\?(?:.*&)?v=|embed/|shorts/|v/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
}

var captionTrackExpr = regexp.MustCompile(`"captionTracks":\s*\[\s*\{[^}]*?"baseUrl":\s*"([^"]+)"`)

// YoutubeExtractor handles YouTube video URLs. The video transcript is the
// body text; title and channel come from the oEmbed endpoint.
type YoutubeExtractor struct {
	baseURL string
	fetcher *fetcher
	logger  *slog.Logger
}

// YoutubeOption configures a YoutubeExtractor.
type YoutubeOption func(*YoutubeExtractor)

// WithYoutubeBaseURL overrides the youtube.com host, used in tests.
func WithYoutubeBaseURL(base string) YoutubeOption {
	return func(y *YoutubeExtractor) {
		y.baseURL = strings.TrimRight(base, "/")
	}
}

// NewYoutubeExtractor creates a YouTube transcript extractor.
func NewYoutubeExtractor(opts ...YoutubeOption) *YoutubeExtractor {
	y := &YoutubeExtractor{
		baseURL: "https://www.youtube.com",
		fetcher: newFetcher(),
		logger:  slog.Default().With("extractor", "youtube"),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *YoutubeExtractor) Name() string { return "youtube" }

func (y *YoutubeExtractor) CanHandle(rawURL string) bool {
	return VideoID(rawURL) != ""
}

// VideoID extracts the 11-character video identifier from a YouTube URL,
// or "" when the URL is not a video link.
func VideoID(rawURL string) string {
	for _, expr := range youtubeIDExprs {
		if m := expr.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

type oembedInfo struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (y *YoutubeExtractor) Extract(ctx context.Context, rawURL string) (*core.RawContent, error) {
	videoID := VideoID(rawURL)
	if videoID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotApplicable, rawURL)
	}

	watchURL := y.baseURL + "/watch?v=" + videoID

	// Title and channel via oEmbed; failure here is not fatal, the
	// transcript is the content we are after.
	var info oembedInfo
	oembedURL := y.baseURL + "/oembed?format=json&url=" + url.QueryEscape(watchURL)
	if body, err := y.fetcher.get(ctx, oembedURL, nil); err == nil {
		if err := json.Unmarshal(body, &info); err != nil {
			y.logger.Debug("oembed response unusable", "video", videoID, "err", err)
		}
	}

	transcript, err := y.fetchTranscript(ctx, watchURL)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{"video_id": videoID}
	if info.AuthorName != "" {
		metadata["author"] = info.AuthorName
		metadata["channel"] = info.AuthorName
	}

	return &core.RawContent{
		SourceURL: rawURL,
		Type:      core.SourceYoutube,
		Title:     info.Title,
		Body:      cleanText(transcript),
		FetchedAt: time.Now().UTC(),
		Metadata:  metadata,
	}, nil
}

// timedText mirrors the caption XML served by the timedtext endpoint.
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start string `xml:"start,attr"`
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// fetchTranscript locates a caption track on the watch page and decodes
// its timedtext XML into plain text.
func (y *YoutubeExtractor) fetchTranscript(ctx context.Context, watchURL string) (string, error) {
	page, err := y.fetcher.get(ctx, watchURL, nil)
	if err != nil {
		return "", err
	}

	m := captionTrackExpr.FindSubmatch(page)
	if m == nil {
		return "", &ParseError{URL: watchURL, Err: fmt.Errorf("no caption tracks available")}
	}

	trackURL := strings.ReplaceAll(string(m[1]), `\u0026`, "&")
	trackURL = strings.ReplaceAll(trackURL, `\/`, "/")

	captions, err := y.fetcher.get(ctx, trackURL, nil)
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(captions, &tt); err != nil {
		return "", &ParseError{URL: watchURL, Err: err}
	}
	if len(tt.Texts) == 0 {
		return "", &ParseError{URL: watchURL, Err: fmt.Errorf("caption track is empty")}
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, entry := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(entry.Value))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
