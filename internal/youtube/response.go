package youtube

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type channelListResponse struct {
	Items []channelItem `json:"items"`
}

type channelItem struct {
	ID         string            `json:"id"`
	Snippet    channelSnippet    `json:"snippet"`
	Statistics channelStatistics `json:"statistics"`
}

type channelSnippet struct {
	Title      string     `json:"title"`
	CustomURL  string     `json:"customUrl"`
	Thumbnails thumbnails `json:"thumbnails"`
}

type channelStatistics struct {
	// The API serializes counters as JSON strings.
	VideoCount string `json:"videoCount"`
}

type searchListResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID searchItemID `json:"id"`
}

type searchItemID struct {
	VideoID string `json:"videoId"`
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string          `json:"id"`
	Snippet        videoSnippet    `json:"snippet"`
	ContentDetails contentDetails  `json:"contentDetails"`
	Statistics     videoStatistics `json:"statistics"`
}

type videoSnippet struct {
	ChannelID   string     `json:"channelId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PublishedAt time.Time  `json:"publishedAt"`
	Thumbnails  thumbnails `json:"thumbnails"`
}

type contentDetails struct {
	Duration string `json:"duration"`
}

type videoStatistics struct {
	ViewCount string `json:"viewCount"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// pick prefers the largest variant the API returned.
func (t thumbnails) pick() string {
	switch {
	case t.High.URL != "":
		return t.High.URL
	case t.Medium.URL != "":
		return t.Medium.URL
	default:
		return t.Default.URL
	}
}

func (i channelItem) toChannel() Channel {
	return Channel{
		ID:         i.ID,
		Title:      i.Snippet.Title,
		Handle:     i.Snippet.CustomURL,
		Thumbnail:  i.Snippet.Thumbnails.pick(),
		VideoCount: parseCount(i.Statistics.VideoCount),
	}
}

func (i videoItem) toVideo() Video {
	return Video{
		ID:          i.ID,
		ChannelID:   i.Snippet.ChannelID,
		Title:       i.Snippet.Title,
		Description: i.Snippet.Description,
		Thumbnail:   i.Snippet.Thumbnails.pick(),
		Duration:    i.ContentDetails.Duration,
		ViewCount:   parseCount(i.Statistics.ViewCount),
		PublishedAt: i.Snippet.PublishedAt,
	}
}

// parseCount reads the API's string-encoded counters. Missing or malformed
// values become zero rather than an error.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// errorMessage extracts the message from a YouTube API error body, falling
// back to the raw body when it is not the documented shape.
func errorMessage(body []byte) string {
	var wrapper struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		return wrapper.Error.Message
	}
	return strings.TrimSpace(string(body))
}
