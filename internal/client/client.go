package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"clipdrop/internal/platform"

	"github.com/google/uuid"
)

// Request is the JSON body posted to the backend.
type Request struct {
	VideoURL   string            `json:"videoUrl"`
	Resolution string            `json:"resolution"`
	Platform   platform.Platform `json:"platform"`
}

// Exchange is a completed response: the status code and the raw body, read
// in full before any decoding is attempted.
type Exchange struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (e *Exchange) OK() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// Client posts download requests to a single backend endpoint. It applies no
// timeout of its own; only the caller's context can abort a request.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Post sends req and returns the response once headers arrive. The caller
// owns the body; use ReadExchange to consume it.
func (c *Client) Post(ctx context.Context, req Request) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	return c.httpClient.Do(httpReq)
}

// ReadExchange drains and closes the response body.
func ReadExchange(resp *http.Response) (*Exchange, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Exchange{StatusCode: resp.StatusCode, Body: body}, nil
}

// Send is Post followed by ReadExchange.
func (c *Client) Send(ctx context.Context, req Request) (*Exchange, error) {
	resp, err := c.Post(ctx, req)
	if err != nil {
		return nil, err
	}
	return ReadExchange(resp)
}
