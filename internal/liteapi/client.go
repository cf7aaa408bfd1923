// Package liteapi talks to the LiteAPI hotel inventory, rates and booking endpoints.
package liteapi

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

	"golang.org/x/time/rate"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/observability"
)

const (
	service = "liteapi"

	DefaultBaseURL = "https://api.liteapi.travel/v3.0"
	DefaultBookURL = "https://book.liteapi.travel/v3.0"

	httpTimeout      = 10 * time.Second
	defaultRPS       = 5
	defaultMaxHotels = 200
	maxBody          = 4 << 20
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	APIKey           string
	BaseURL          string
	BookURL          string
	Currency         string
	GuestNationality string
	MaxHotels        int
	RPS              int
}

// Client is a LiteAPI client shared by inventory, pricing and booking calls.
type Client struct {
	apiKey      string
	baseURL     string
	bookURL     string
	currency    string
	nationality string
	maxHotels   int
	hc          *http.Client
	rl          *rate.Limiter
}

// New constructs a Client. The API key is required.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("liteapi: API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.BookURL == "" {
		opts.BookURL = DefaultBookURL
	}
	if opts.Currency == "" {
		opts.Currency = "GBP"
	}
	if opts.GuestNationality == "" {
		opts.GuestNationality = "IN"
	}
	if opts.MaxHotels <= 0 {
		opts.MaxHotels = defaultMaxHotels
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	return &Client{
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		bookURL:     strings.TrimRight(opts.BookURL, "/"),
		currency:    opts.Currency,
		nationality: opts.GuestNationality,
		maxHotels:   opts.MaxHotels,
		hc:          &http.Client{Timeout: httpTimeout},
		rl:          rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS),
	}, nil
}

// reply is a raw provider response.
type reply struct {
	status int
	body   []byte
}

func (r reply) ok() bool { return r.status >= 200 && r.status <= 299 }

// do sends one request. payload, when non-nil, is JSON-encoded. Transport
// failures are returned as UpstreamError with Status 0.
func (c *Client) do(ctx context.Context, method, rawURL, endpoint string, payload any) (reply, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return reply{}, fmt.Errorf("liteapi %s: waiting for rate limiter: %w", endpoint, err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return reply{}, fmt.Errorf("liteapi %s: encoding request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return reply{}, fmt.Errorf("liteapi %s: creating request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		return reply{}, &apperr.UpstreamError{Service: service, Message: endpoint + " request failed", Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return reply{}, &apperr.UpstreamError{Service: service, Status: resp.StatusCode, Message: "reading " + endpoint + " response", Err: err}
	}
	return reply{status: resp.StatusCode, body: b}, nil
}

// upstreamError builds the error for a non-2xx reply, lifting the provider's
// message out of either {"message": ...} or {"error": {"message": ...}}.
func upstreamError(r reply, fallback string) error {
	msg := fallback
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(r.body, &env) == nil {
		switch {
		case env.Message != "":
			msg = env.Message
		case len(env.Error) > 0:
			var nested struct {
				Message string `json:"message"`
			}
			var flat string
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				msg = nested.Message
			} else if json.Unmarshal(env.Error, &flat) == nil && flat != "" {
				msg = flat
			}
		}
	}
	return &apperr.UpstreamError{Service: service, Status: r.status, Body: string(r.body), Message: msg}
}

func decode(r reply, endpoint string, dst any) error {
	if err := json.Unmarshal(r.body, dst); err != nil {
		return &apperr.ParseError{Service: service, Status: r.status, Raw: string(r.body), Err: fmt.Errorf("%s: %w", endpoint, err)}
	}
	return nil
}
