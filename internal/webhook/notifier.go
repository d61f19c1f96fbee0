// Package webhook posts dashboard events to a configured callback URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EventAnalysisCompleted fires after an analysis is generated and stored.
const EventAnalysisCompleted = "analysis.completed"

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 10 * time.Second

// Event is the payload delivered to the callback URL.
type Event struct {
	Type       string    `json:"type"`
	ChannelID  string    `json:"channelId,omitempty"`
	VideoID    string    `json:"videoId,omitempty"`
	AnalysisID string    `json:"analysisId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier delivers events over HTTP. A notifier with an empty URL is
// disabled and drops events silently, so callers never need a nil check.
type Notifier struct {
	url        string
	httpClient *http.Client
}

// NewNotifier returns a notifier posting to url. An empty url yields a
// disabled notifier. A non-positive timeout falls back to DefaultTimeout.
func NewNotifier(url string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a callback URL is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Notify posts the event as JSON. Disabled notifiers return nil without
// making a request. Any non-2xx reply is an error.
func (n *Notifier) Notify(ctx context.Context, event Event) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver %s: %w", event.Type, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook: deliver %s: unexpected status %d", event.Type, resp.StatusCode)
	}
	return nil
}
