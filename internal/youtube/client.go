// Package youtube is a thin client for the YouTube Data API v3, covering
// the channel and video reads the dashboard needs.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public YouTube Data API endpoint.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultRequestsPerSecond bounds outbound calls well below the API
	// quota burn rate.
	DefaultRequestsPerSecond = 8

	// DefaultMaxResults is how many videos a listing fetches when the
	// caller does not say. The API caps a single page at 50.
	DefaultMaxResults = 25

	maxResultsCap = 50
)

// ErrChannelNotFound is returned when a channel lookup matches nothing.
var ErrChannelNotFound = errors.New("youtube: channel not found")

// APIError is a non-2xx reply from the YouTube API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube: api error %d: %s", e.StatusCode, e.Message)
}

// Channel is the subset of channel metadata the dashboard tracks.
type Channel struct {
	ID         string
	Title      string
	Handle     string
	Thumbnail  string
	VideoCount int64
}

// Video is the subset of video metadata the dashboard stores.
type Video struct {
	ID          string
	ChannelID   string
	Title       string
	Description string
	Thumbnail   string
	Duration    string
	ViewCount   int64
	PublishedAt time.Time
}

// Client calls the YouTube Data API. All requests share a process-wide
// rate limit so refresh bursts cannot exhaust the daily quota.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRequestsPerSecond adjusts the outbound request rate.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient returns a client with defaults applied.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("youtube: api key is required")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ResolveChannel looks a channel up by id (UC-prefixed) or handle and
// returns its metadata. Returns ErrChannelNotFound when nothing matches.
func (c *Client) ResolveChannel(ctx context.Context, ref string) (Channel, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Channel{}, errors.New("youtube: channel reference is required")
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	if strings.HasPrefix(ref, "UC") {
		params.Set("id", ref)
	} else {
		params.Set("forHandle", ref)
	}

	var resp channelListResponse
	if err := c.get(ctx, "/channels", params, &resp); err != nil {
		return Channel{}, err
	}
	if len(resp.Items) == 0 {
		return Channel{}, ErrChannelNotFound
	}
	return resp.Items[0].toChannel(), nil
}

// ListLatestVideos returns up to maxResults of the channel's newest videos,
// including duration and view statistics.
func (c *Client) ListLatestVideos(ctx context.Context, channelID string, maxResults int) ([]Video, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}

	params := url.Values{}
	params.Set("part", "id")
	params.Set("channelId", channelID)
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))

	var search searchListResponse
	if err := c.get(ctx, "/search", params, &search); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return []Video{}, nil
	}

	params = url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))

	var list videoListResponse
	if err := c.get(ctx, "/videos", params, &list); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(list.Items))
	for _, item := range list.Items {
		videos = append(videos, item.toVideo())
	}
	return videos, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("youtube: wait for request slot: %w", err)
	}

	params.Set("key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("youtube: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("youtube: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("youtube: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("youtube: decode response: %w", err)
	}
	return nil
}
