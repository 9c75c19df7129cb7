package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Metadata is the display information YouTube publishes for a video.
type Metadata struct {
	Title   string
	Channel string
}

// MetadataClient looks up title and channel through the public oEmbed
// endpoint, which needs no API key.
type MetadataClient struct {
	client  *http.Client
	baseURL string
}

func NewMetadataClient(timeout time.Duration) *MetadataClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MetadataClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
	}
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// Fetch returns the title and channel name of videoID.
func (m *MetadataClient) Fetch(ctx context.Context, videoID string) (Metadata, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID
	oembedURL := m.baseURL + "/oembed?url=" + url.QueryEscape(watchURL) + "&format=json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return Metadata{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Metadata{}, fmt.Errorf("decode oembed: %w", err)
	}

	return Metadata{Title: body.Title, Channel: body.AuthorName}, nil
}
