// Package scraper wraps the browser-automation service over HTTP. The
// service runs the actual headless browser; this client only forwards
// requests and decodes results.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ScrapeRequest describes one page fetch.
type ScrapeRequest struct {
	URL               string `json:"url"`
	WaitTimeMS        int    `json:"wait_time_ms,omitempty"`
	CaptureScreenshot bool   `json:"capture_screenshot,omitempty"`
	ExtractSelector   string `json:"extract_selector,omitempty"`
}

// ScrapeResult is the rendered page content. Screenshot is base64 when
// requested.
type ScrapeResult struct {
	Success    bool   `json:"success"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	HTML       string `json:"html"`
	Text       string `json:"text"`
	Screenshot string `json:"screenshot,omitempty"`
	Error      string `json:"error,omitempty"`
	Engine     string `json:"engine"`
	LoadTimeMS int    `json:"load_time_ms"`
}

// ErrUnconfigured is returned when no scraper service URL is configured.
var ErrUnconfigured = fmt.Errorf("scraper service not configured")

// Client talks to the scraper service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the scraper at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

// Configured reports whether a scraper URL is set.
func (c *Client) Configured() bool { return c.baseURL != "" }

// Scrape renders a URL and returns its content.
func (c *Client) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error) {
	var out ScrapeResult
	if err := c.post(ctx, "/scrape", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Screenshot captures a full-page screenshot as base64.
func (c *Client) Screenshot(ctx context.Context, url string) (string, error) {
	var out struct {
		Screenshot string `json:"screenshot"`
	}
	if err := c.post(ctx, "/screenshot", map[string]string{"url": url}, &out); err != nil {
		return "", err
	}
	return out.Screenshot, nil
}

// Status returns the service's engine status document.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrUnconfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper error (status %d): %s", resp.StatusCode, string(body))
	}
	return json.RawMessage(body), nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	if !c.Configured() {
		return ErrUnconfigured
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scraper request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scraper error (status %d): %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
