// Package rest talks to the finance API and turns every outcome into a
// resources.Response. Nothing in this package returns a Go error for a
// failed call; callers branch on Response.Succeeded.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"portafoglio/internal/log"
	"portafoglio/internal/resources"
)

const (
	// HeaderRequestID carries the per-call trace id.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 10 << 20
)

// ErrNoToken is returned by a TokenSource when no session is stored.
// Requests then go out without an Authorization header.
var ErrNoToken = errors.New("no session token")

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *log.Logger
	// RequestsPerMinute caps outgoing calls; zero means no cap.
	RequestsPerMinute int
}

// Client issues JSON requests against the API base URL.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	logger *log.Logger
	trace  *transport
}

// NewClient validates the base URL and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentREST)

	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	} else {
		hc.Timeout = cfg.Timeout
		if hc.Timeout <= 0 {
			hc.Timeout = defaultTimeout
		}
	}
	tr := newTransport(hc.Transport, cfg.RequestsPerMinute, logger)
	hc.Transport = tr

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		base:   base,
		http:   &hc,
		tokens: tokens,
		logger: logger,
		trace:  tr,
	}, nil
}

// Metrics reports request counts and latency since the client was built.
func (c *Client) Metrics() Metrics { return c.trace.metrics() }

// Do sends one request and decodes the {ok, reason, data} envelope into D.
//
// Transport errors, non-2xx statuses and undecodable bodies come back as
// StatusError responses. A 2xx with ok=false is a StatusSuccess response
// whose Body carries the server's reason.
func Do[D any](ctx context.Context, c *Client, method, path string, query url.Values, payload any) resources.Response[D] {
	start := time.Now()
	requestID := uuid.NewString()
	resp := do[D](ctx, c, requestID, method, path, query, payload)

	fields := log.NewFields().
		WithRequestID(requestID).
		WithHTTP(method, path, resp.Code, time.Since(start).Milliseconds())
	args := append(fields.ToSlice(), log.FieldSuccess, resp.Succeeded())
	if resp.Status == resources.StatusError {
		c.logger.WarnContext(ctx, "api call failed", append(args, log.FieldError, resp.ErrorMessage)...)
	} else {
		c.logger.DebugContext(ctx, "api call", append(args, log.FieldReason, resp.Body.Reason)...)
	}
	return resp
}

func do[D any](ctx context.Context, c *Client, requestID, method, path string, query url.Values, payload any) resources.Response[D] {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return resources.Failed[D](0, "Invalid request", err.Error())
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return resources.Failed[D](0, "Invalid request", err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	switch {
	case err == nil:
		req.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, ErrNoToken):
	default:
		return resources.Failed[D](0, "Session unavailable", err.Error())
	}

	res, err := c.http.Do(req)
	if errors.Is(err, ErrRateLimited) {
		return resources.Failed[D](http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), err.Error())
	}
	if err != nil {
		return resources.Failed[D](0, "Network error", err.Error())
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return resources.Failed[D](res.StatusCode, http.StatusText(res.StatusCode), err.Error())
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return resources.Failed[D](res.StatusCode, http.StatusText(res.StatusCode), errorMessage(raw))
	}

	var envelope resources.Body[D]
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return resources.Failed[D](res.StatusCode, "Invalid response", err.Error())
		}
	} else {
		envelope.OK = true
	}
	return resources.Response[D]{
		Status: resources.StatusSuccess,
		Code:   res.StatusCode,
		Body:   envelope,
	}
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// errorMessage prefers the envelope reason of an error body, then the raw text.
func errorMessage(raw []byte) string {
	var envelope struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Reason != "" {
		return envelope.Reason
	}
	return strings.TrimSpace(string(raw))
}
