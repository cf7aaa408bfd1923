package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/observability"
	"github.com/neexbeast/gumdrop/internal/stay"
)

const (
	service        = "geocode"
	defaultBaseURL = "https://geocode.maps.co"
	httpTimeout    = 10 * time.Second
	maxBody        = 1 << 20
)

// Client resolves free-text locations through the maps.co search API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client with the given API key.
func NewClient(apiKey string) *Client {
	return NewClientWithURL(defaultBaseURL, apiKey)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// place is one search hit. The provider sends coordinates as strings but
// numbers are accepted too.
type place struct {
	Lat flexFloat `json:"lat"`
	Lon flexFloat `json:"lon"`
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// Resolve geocodes text, retrying with fallbackAddress only when text has no
// results.
func (c *Client) Resolve(ctx context.Context, text, fallbackAddress string) (stay.Coordinates, error) {
	text = strings.TrimSpace(text)
	fallbackAddress = strings.TrimSpace(fallbackAddress)
	if text == "" {
		return stay.Coordinates{}, apperr.Invalid("location is required", "location")
	}

	coords, found, err := c.search(ctx, text)
	if err != nil || found {
		return coords, err
	}

	if fallbackAddress != "" && fallbackAddress != text {
		coords, found, err = c.search(ctx, fallbackAddress)
		if err != nil || found {
			return coords, err
		}
	}

	return stay.Coordinates{}, apperr.NotFound("geocoding results for " + strconv.Quote(text))
}

// search runs one query. found is false for an empty or non-array result.
func (c *Client) search(ctx context.Context, q string) (stay.Coordinates, bool, error) {
	endpoint := c.baseURL + "/search?q=" + url.QueryEscape(q)
	if c.apiKey != "" {
		endpoint += "&api_key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return stay.Coordinates{}, false, fmt.Errorf("creating geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		observability.ObserveExternal(service, "search", 0, time.Since(start))
		return stay.Coordinates{}, false, &apperr.UpstreamError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, "search", resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return stay.Coordinates{}, false, &apperr.UpstreamError{Service: service, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return stay.Coordinates{}, false, &apperr.UpstreamError{
			Service: service,
			Status:  resp.StatusCode,
			Body:    string(body),
			Message: "geocoding request failed",
		}
	}

	if !json.Valid(body) {
		return stay.Coordinates{}, false, &apperr.ParseError{Service: service, Raw: string(body)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return stay.Coordinates{}, false, nil
	}

	var places []place
	if err := json.Unmarshal(trimmed, &places); err != nil {
		return stay.Coordinates{}, false, &apperr.ParseError{Service: service, Raw: string(body), Err: err}
	}
	if len(places) == 0 {
		return stay.Coordinates{}, false, nil
	}

	return stay.Coordinates{Lat: float64(places[0].Lat), Lon: float64(places[0].Lon)}, true, nil
}
