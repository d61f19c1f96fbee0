// Package gemini generates video analyses with the Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when the configuration does not name one.
	DefaultModel = "gemini-2.0-flash"
)

// APIError is a non-2xx reply from the Gemini API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: api error %d: %s", e.StatusCode, e.Message)
}

// AnalysisRequest carries the video context the prompt is built from.
type AnalysisRequest struct {
	VideoTitle       string
	VideoDescription string
	ChannelTitle     string
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithModel selects the model used for generation.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient returns a client with defaults applied.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     strings.TrimSpace(apiKey),
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the model name used for generation.
func (c *Client) Model() string {
	return c.model
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// GenerateAnalysis asks the model for a viewer-facing summary of the video
// and returns the generated text.
func (c *Client) GenerateAnalysis(ctx context.Context, req AnalysisRequest) (string, error) {
	if strings.TrimSpace(req.VideoTitle) == "" {
		return "", errors.New("gemini: video title is required")
	}

	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(req)}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response candidates")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errors.New("gemini: empty generated text")
	}
	return text, nil
}

func buildPrompt(req AnalysisRequest) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following YouTube video for a dashboard reader. ")
	sb.WriteString("Cover the main topic, key takeaways, and who should watch it. ")
	sb.WriteString("Keep it under 200 words.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", req.VideoTitle)
	if req.ChannelTitle != "" {
		fmt.Fprintf(&sb, "Channel: %s\n", req.ChannelTitle)
	}
	if req.VideoDescription != "" {
		fmt.Fprintf(&sb, "Description: %s\n", req.VideoDescription)
	}
	return sb.String()
}

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
