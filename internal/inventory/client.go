// Package inventory wraps the cloud inventory agent service: instance
// lifecycle actions, bucket listings, object storage, and the natural
// language command endpoint. Every method is a pass-through; the agent
// service owns all cloud-provider logic.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Instance is one compute instance as reported by the agent.
type Instance struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Type       string `json:"type"`
	State      string `json:"state"`
	PublicIP   string `json:"public_ip,omitempty"`
	LaunchedAt string `json:"launched_at,omitempty"`
}

// Bucket is one object-storage bucket.
type Bucket struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Object is one stored object.
type Object struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

// LaunchRequest describes a new instance.
type LaunchRequest struct {
	ImageID      string `json:"image_id"`
	InstanceType string `json:"instance_type"`
	Name         string `json:"name"`
}

// CommandResult is the agent's reply to a natural language command.
type CommandResult struct {
	Response string          `json:"response"`
	Actions  []string        `json:"actions,omitempty"`
	Context  json.RawMessage `json:"context,omitempty"`
}

// Client talks to the agent service over HTTP.
type Client struct {
	baseURL    string
	region     string
	httpClient *http.Client
}

// NewClient creates a client for the agent at baseURL. An empty baseURL
// produces an unconfigured client whose calls fail with ErrUnconfigured.
func NewClient(baseURL, region string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		region:     region,
		httpClient: httpClient,
	}
}

// ErrUnconfigured is returned when no agent service URL is configured.
var ErrUnconfigured = fmt.Errorf("inventory agent not configured")

// Configured reports whether an agent URL is set.
func (c *Client) Configured() bool { return c.baseURL != "" }

// Capabilities returns the agent's self-reported capability document.
func (c *Client) Capabilities(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, "/capabilities", nil, &out)
	return out, err
}

// Command forwards a natural language command to the agent.
func (c *Client) Command(ctx context.Context, command string) (*CommandResult, error) {
	var out CommandResult
	in := map[string]string{"command": command}
	if err := c.do(ctx, http.MethodPost, "/command", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInstances lists all compute instances.
func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	var out []Instance
	err := c.do(ctx, http.MethodGet, "/ec2/instances", nil, &out)
	return out, err
}

// Launch starts a new instance.
func (c *Client) Launch(ctx context.Context, req LaunchRequest) (*Instance, error) {
	var out Instance
	if err := c.do(ctx, http.MethodPost, "/ec2/launch", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start starts a stopped instance.
func (c *Client) Start(ctx context.Context, instanceID string) error {
	return c.do(ctx, http.MethodPost, "/ec2/start", map[string]string{"instance_id": instanceID}, nil)
}

// Stop stops a running instance.
func (c *Client) Stop(ctx context.Context, instanceID string) error {
	return c.do(ctx, http.MethodPost, "/ec2/stop", map[string]string{"instance_id": instanceID}, nil)
}

// Terminate destroys an instance.
func (c *Client) Terminate(ctx context.Context, instanceID string) error {
	return c.do(ctx, http.MethodPost, "/ec2/terminate", map[string]string{"instance_id": instanceID}, nil)
}

// ListBuckets lists all object-storage buckets.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	var out []Bucket
	err := c.do(ctx, http.MethodGet, "/s3/buckets", nil, &out)
	return out, err
}

// ListObjects lists objects under prefix in bucket.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var out []Object
	path := "/s3/objects/" + url.PathEscape(bucket)
	if prefix != "" {
		path += "?prefix=" + url.QueryEscape(prefix)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Upload stores body as bucket/key with the given content type.
func (c *Client) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	if !c.Configured() {
		return ErrUnconfigured
	}
	target := fmt.Sprintf("%s/s3/object?bucket=%s&key=%s",
		c.baseURL, url.QueryEscape(bucket), url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inventory agent request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inventory agent error (status %d): %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Download fetches bucket/key. The caller must close the returned body.
func (c *Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, string, error) {
	if !c.Configured() {
		return nil, "", ErrUnconfigured
	}
	target := fmt.Sprintf("%s/s3/object?bucket=%s&key=%s",
		c.baseURL, url.QueryEscape(bucket), url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("inventory agent request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("inventory agent error (status %d): %s", resp.StatusCode, string(msg))
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if !c.Configured() {
		return ErrUnconfigured
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.region != "" {
		req.Header.Set("X-Region", c.region)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inventory agent request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("inventory agent error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
