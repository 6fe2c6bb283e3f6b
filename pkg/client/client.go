// Package client opens streaming requests against the API and hands the
// response bodies to typed streams.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"

	"github.com/jg-phare/chunkfold/pkg/chat"
	"github.com/jg-phare/chunkfold/pkg/functions"
	"github.com/jg-phare/chunkfold/pkg/profiles"
	"github.com/jg-phare/chunkfold/pkg/stream"
	"github.com/jg-phare/chunkfold/pkg/vector"
)

// Client is safe for concurrent use. Each call opens an independent stream.
type Client struct {
	config     Config
	httpClient *http.Client
	log        logrus.FieldLogger
}

// New returns a Client for cfg, filling unset fields with defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Client{
		config:     cfg,
		httpClient: cfg.HTTPClient,
		log:        cfg.Logger,
	}
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a header on one request, overriding configured headers.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Open posts body to path and returns the response as a stream of T.
// body may be raw JSON ([]byte, json.RawMessage) or any value that
// marshals to a JSON object; "stream" is forced to true either way.
// A non-2xx response is returned as a *stream.FetchError.
func Open[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*stream.Stream[T], error) {
	rc, err := c.Post(ctx, path, body, opts...)
	if err != nil {
		return nil, err
	}
	return stream.New[T](ctx, rc, stream.WithLogger(c.log)), nil
}

// Logger returns the logger streams opened by this client report to.
func (c *Client) Logger() logrus.FieldLogger { return c.log }

// Post sends a streaming request and returns the event-stream body, which
// the caller must close. Most callers want Open.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (io.ReadCloser, error) {
	resp, err := c.post(ctx, path, body, opts)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ChatCompletions streams a chat completion.
func (c *Client) ChatCompletions(ctx context.Context, req any, opts ...RequestOption) (*stream.Stream[chat.CompletionChunk], error) {
	return Open[chat.CompletionChunk](ctx, c, "/chat/completions", req, opts...)
}

// VectorCompletions streams a vector completion.
func (c *Client) VectorCompletions(ctx context.Context, req any, opts ...RequestOption) (*stream.Stream[vector.Chunk], error) {
	return Open[vector.Chunk](ctx, c, "/vector/completions", req, opts...)
}

// ExecuteFunction streams a function execution. A nil fn or profile means
// the request body carries it inline.
func (c *Client) ExecuteFunction(ctx context.Context, fn, profile *Ref, req any, opts ...RequestOption) (*stream.Stream[functions.ExecutionChunk], error) {
	return Open[functions.ExecutionChunk](ctx, c, ExecutionPath(fn, profile), req, opts...)
}

// ComputeProfile streams a profile computation for fn, or for an inline
// function when fn is nil.
func (c *Client) ComputeProfile(ctx context.Context, fn *Ref, req any, opts ...RequestOption) (*stream.Stream[profiles.Chunk], error) {
	return Open[profiles.Chunk](ctx, c, ComputePath(fn), req, opts...)
}

func (c *Client) post(ctx context.Context, path string, body any, opts []RequestOption) (*http.Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	url := c.config.BaseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	c.setHeaders(httpReq)
	for _, opt := range opts {
		opt(httpReq)
	}

	log := c.log.WithField("path", path)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("client: %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		fetchErr := stream.NewFetchError(resp.StatusCode, data)
		log.WithField("status", resp.StatusCode).WithError(fetchErr).Warn("request failed")
		return nil, fetchErr
	}

	log.WithField("status", resp.StatusCode).Debug("stream started")
	return resp, nil
}

func (c *Client) setHeaders(r *http.Request) {
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "text/event-stream")
	if c.config.APIKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	if c.config.UserAgent != "" {
		r.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.XTitle != "" {
		r.Header.Set("X-Title", c.config.XTitle)
	}
	if c.config.HTTPReferer != "" {
		r.Header.Set("HTTP-Referer", c.config.HTTPReferer)
	}
	for k, v := range c.config.Headers {
		r.Header.Set(k, v)
	}
}

func encodeBody(body any) ([]byte, error) {
	var raw []byte
	switch b := body.(type) {
	case nil:
		raw = []byte("{}")
	case []byte:
		raw = b
	case json.RawMessage:
		raw = b
	default:
		var err error
		if raw, err = json.Marshal(b); err != nil {
			return nil, fmt.Errorf("client: marshal request: %w", err)
		}
	}
	out, err := sjson.SetBytes(raw, "stream", true)
	if err != nil {
		return nil, fmt.Errorf("client: set stream flag: %w", err)
	}
	return out, nil
}
