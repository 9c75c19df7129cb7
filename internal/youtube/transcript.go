package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TranscriptClient fetches caption transcripts from YouTube.
//
// Fetch scrapes the watch page for ytInitialPlayerResponse, picks a caption
// track in one of the configured languages and downloads its timedtext XML.
// ListLanguages asks the Innertube /player endpoint instead, so it is an
// independent second opinion when the watch page had no usable track.
type TranscriptClient struct {
	client    *http.Client
	baseURL   string
	languages []string
	logger    *zap.Logger
}

func NewTranscriptClient(languages []string, timeout time.Duration, logger *zap.Logger) *TranscriptClient {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptClient{
		client:    &http.Client{Timeout: timeout},
		baseURL:   defaultBaseURL,
		languages: languages,
		logger:    logger,
	}
}

// Fetch returns the whole transcript of videoID as one space-joined block in
// caption order. It never returns a partial transcript; every failure is a
// *FetchError.
func (c *TranscriptClient) Fetch(ctx context.Context, videoID string) (string, error) {
	c.logger.Debug("fetching transcript", zap.String("video_id", videoID))

	player, err := c.watchPagePlayer(ctx, videoID)
	if err != nil {
		return "", unknownError(videoID, err)
	}

	if ps := player.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
		detail := ps.Reason
		if detail == "" {
			detail = ps.Status
		}
		return "", &FetchError{Reason: ReasonUnavailable, VideoID: videoID, Detail: detail}
	}

	tracks := player.tracks()
	if len(tracks) == 0 {
		return "", &FetchError{Reason: ReasonTranscriptsDisabled, VideoID: videoID}
	}

	track, ok := pickTrack(tracks, c.languages)
	if !ok {
		return "", c.notFound(ctx, videoID)
	}

	text, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return "", unknownError(videoID, err)
	}
	if text == "" {
		return "", unknownError(videoID, errors.New("caption track is empty"))
	}

	c.logger.Debug("fetched transcript",
		zap.String("video_id", videoID),
		zap.String("language", track.LanguageCode),
		zap.Int("chars", len(text)))
	return text, nil
}

// notFound builds the NotFound error, enriched with the languages the video
// does offer. A failing listing call only drops the enrichment.
func (c *TranscriptClient) notFound(ctx context.Context, videoID string) *FetchError {
	fe := &FetchError{Reason: ReasonNotFound, VideoID: videoID}
	langs, err := c.ListLanguages(ctx, videoID)
	if err != nil {
		c.logger.Warn("could not list transcript languages", zap.String("video_id", videoID), zap.Error(err))
		return fe
	}
	fe.Languages = langs
	return fe
}

// ListLanguages returns the distinct language codes of the caption tracks
// offered for videoID, in the order YouTube lists them.
func (c *TranscriptClient) ListLanguages(ctx context.Context, videoID string) ([]string, error) {
	body, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{
			Client: playerClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/youtubei/v1/player?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("innertube player returned status %d", resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}

	seen := make(map[string]bool)
	var langs []string
	for _, t := range player.tracks() {
		if t.LanguageCode == "" || seen[t.LanguageCode] {
			continue
		}
		seen[t.LanguageCode] = true
		langs = append(langs, t.LanguageCode)
	}
	if len(langs) == 0 {
		return nil, errors.New("no caption tracks listed")
	}
	return langs, nil
}

func (c *TranscriptClient) watchPagePlayer(ctx context.Context, videoID string) (*playerResponse, error) {
	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	raw := extractJSON(body[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, errors.New("malformed ytInitialPlayerResponse")
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &player, nil
}

func (c *TranscriptClient) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	lines := tt.Lines
	if len(lines) == 0 {
		lines = tt.Paragraphs
	}

	var sb strings.Builder
	for _, line := range lines {
		text := cleanCaption(line.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// cleanCaption undoes the second level of entity escaping YouTube applies to
// caption text and collapses whitespace.
func cleanCaption(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// pickTrack prefers a manual track over an auto-generated one, trying the
// languages in order. A language also matches its regional variants.
// Tracks that need a browser PoToken are skipped.
func pickTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	matches := func(t captionTrack, lang string) bool {
		return t.LanguageCode == lang || strings.HasPrefix(t.LanguageCode, lang+"-")
	}

	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !strings.Contains(t.BaseURL, "&exp=xpe") {
			usable = append(usable, t)
		}
	}

	for _, lang := range langs {
		for _, t := range usable {
			if matches(t, lang) && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if matches(t, lang) {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

// extractJSON returns the first balanced JSON object at the start of data.
func extractJSON(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	depth := 0
	inString := false
	escaped := false
	for i, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}
	return nil
}
