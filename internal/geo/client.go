// Package geo wraps the external geocoding API (Google-style geocode
// endpoint) and an IP geolocation lookup. Both are pass-throughs decoded
// into a flat Location.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultBaseURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultIPBaseURL = "http://ip-api.com/json"
)

// Location is a flattened geocoding result.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// ErrUnconfigured is returned when no geocoding API key is configured.
var ErrUnconfigured = fmt.Errorf("geocoding not configured")

// ErrNoResults is returned when the upstream API finds nothing.
var ErrNoResults = fmt.Errorf("no geocoding results")

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL overrides the geocode endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client performs geocoding lookups.
type Client struct {
	apiKey     string
	baseURL    string
	ipBaseURL  string
	httpClient *http.Client
}

// NewClient creates a geocoding client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		ipBaseURL:  defaultIPBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a geocoding API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Geocode resolves a freeform address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (*Location, error) {
	if !c.Configured() {
		return nil, ErrUnconfigured
	}
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)
	return c.lookup(ctx, params)
}

// Reverse resolves coordinates to an address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Location, error) {
	if !c.Configured() {
		return nil, ErrUnconfigured
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	return c.lookup(ctx, params)
}

func (c *Client) lookup(ctx context.Context, params url.Values) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode error (status %d): %s", resp.StatusCode, string(body))
	}

	var doc geocodeResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("geocode decode failed: %w", err)
	}
	if doc.Status != "OK" || len(doc.Results) == 0 {
		return nil, fmt.Errorf("%w (status %s)", ErrNoResults, doc.Status)
	}

	return doc.Results[0].location(), nil
}

// IPLookup resolves a client IP to an approximate location. It uses a
// separate keyless endpoint and works without a geocoding API key.
func (c *Client) IPLookup(ctx context.Context, ip string) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ipBaseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	var doc struct {
		Status  string  `json:"status"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		City    string  `json:"city"`
		Region  string  `json:"regionName"`
		Country string  `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("ip lookup decode failed: %w", err)
	}
	if doc.Status != "success" {
		return nil, ErrNoResults
	}
	return &Location{
		Latitude:  doc.Lat,
		Longitude: doc.Lon,
		City:      doc.City,
		State:     doc.Region,
		Country:   doc.Country,
	}, nil
}

// geocodeResponse mirrors the upstream wire format.
type geocodeResponse struct {
	Status  string          `json:"status"`
	Results []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	AddressComponents []struct {
		LongName string   `json:"long_name"`
		Types    []string `json:"types"`
	} `json:"address_components"`
}

func (r *geocodeResult) location() *Location {
	loc := &Location{
		Latitude:  r.Geometry.Location.Lat,
		Longitude: r.Geometry.Location.Lng,
		Address:   r.FormattedAddress,
	}
	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				loc.City = comp.LongName
			case "administrative_area_level_1":
				loc.State = comp.LongName
			case "country":
				loc.Country = comp.LongName
			}
		}
	}
	return loc
}
