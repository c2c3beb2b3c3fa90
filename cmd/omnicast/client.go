package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps HTTP calls to the omnicast server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new omnicast API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// escapeRef escapes a content reference for use in a URL path, preserving
// the path separators the reference itself contains.
func escapeRef(ref string) string {
	segments := strings.Split(ref, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// API response types (mirror server types)

type ItemResponse struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"`
	LocalID     string            `json:"localId"`
	Title       string            `json:"title"`
	Thumb       string            `json:"thumb,omitempty"`
	Description string            `json:"description,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	List        *ListableResponse `json:"list,omitempty"`
	Play        *PlayableResponse `json:"play,omitempty"`
	Open        *OpenableResponse `json:"open,omitempty"`
}

type ListableResponse struct {
	Type       string `json:"type"`
	ChildCount int    `json:"childCount,omitempty"`
}

type PlayableResponse struct {
	MediaType      string `json:"mediaType"`
	MediaURL       string `json:"mediaUrl"`
	Duration       int64  `json:"duration,omitempty"`       // nanoseconds
	Resumable      bool   `json:"resumable"`
	ResumePosition int64  `json:"resumePosition,omitempty"` // nanoseconds
}

type OpenableResponse struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type ItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

type StatusResponse struct {
	Version string   `json:"version"`
	Uptime  string   `json:"uptime"`
	Sources []string `json:"sources"`
}

// API methods

func (c *Client) List(ref string) (*ItemsResponse, error) {
	var resp ItemsResponse
	if err := c.get("/api/v1/list/"+escapeRef(ref), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Open(ref string) (*ItemResponse, error) {
	var resp ItemResponse
	if err := c.get("/api/v1/open/"+escapeRef(ref), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Play(ref string) (*ItemResponse, error) {
	var resp ItemResponse
	if err := c.get("/api/v1/play/"+escapeRef(ref), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Queue(ref string) (*ItemsResponse, error) {
	var resp ItemsResponse
	if err := c.get("/api/v1/queue/"+escapeRef(ref), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Progress(itemID string, playhead, duration time.Duration) error {
	req := map[string]any{
		"itemId":     itemID,
		"playheadMs": playhead.Milliseconds(),
		"durationMs": duration.Milliseconds(),
	}
	return c.post("/api/v1/progress", req, nil)
}
