// Package apiclient talks to the external legal/real-estate REST API that owns
// services, reservations, users, authentication and payments.
package apiclient

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

	"github.com/Domenick1991/legalinmo/internal/metrics"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	loc        *time.Location
	metrics    *metrics.UpstreamMetrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLocation sets the zone used for upstream timestamps that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Location() *time.Location {
	return c.loc
}

type request struct {
	operation string
	method    string
	path      string
	token     string
	body      any
	fallback  string
}

type response struct {
	status int
	body   []byte
}

// do performs one round trip. Non-2xx answers come back as *APIError carrying
// the upstream message or the request's fallback. Nothing is retried.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, r)
	c.metrics.ObserveRequest(r.operation, outcome(resp, err), time.Since(start))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("upstream request failed",
				zap.String("operation", r.operation),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if resp.status < 200 || resp.status > 299 {
		apiErr := &APIError{Operation: r.operation, Status: resp.status, Message: upstreamMessage(resp.body)}
		if apiErr.Message == "" {
			apiErr.Message = r.fallback
		}
		c.logger.Info("upstream rejected request",
			zap.String("operation", r.operation),
			zap.Int("status", resp.status),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, r request) (*response, error) {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", r.operation, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(r.token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return nil, fmt.Errorf("%s: %w", r.operation, context.Canceled)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, r.operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrTransport, r.operation, err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func outcome(resp *response, err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case err != nil:
		return "transport_error"
	case IsUnauthorizedStatus(resp.status):
		return "unauthorized"
	case resp.status >= 200 && resp.status <= 299:
		return "ok"
	default:
		return "rejected"
	}
}

func upstreamMessage(body []byte) string {
	obj, err := decodeObject(body)
	if err != nil {
		return ""
	}
	return obj.str("message")
}
