// Package pplx implements the Perplexity chat-completion client: request
// admission through a sliding-window rate limiter, retry orchestration with
// exponential backoff, and classification of transport outcomes into the
// apierr taxonomy.
package pplx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
	"github.com/sonarlens/sonarlens/internal/pplx/ratelimit"
	"github.com/sonarlens/sonarlens/internal/pplx/schema"
	"github.com/sonarlens/sonarlens/internal/pplx/transport"
)

// Client is the Perplexity API client. It is safe for concurrent use; all
// calls share one rate limiter, so concurrent callers draw from the same
// admission budget.
type Client struct {
	cfg       Config
	limiter   *ratelimit.Limiter
	transport transport.Transport
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option adjusts client construction.
type Option func(*Client)

// WithTransport replaces the HTTP transport, typically with a fake in tests
// or an instrumented wrapper.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// New validates cfg, fills defaults, and returns a ready client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limiter, err := ratelimit.New(cfg.RequestsPerMinute, cfg.RateLimitEnabled)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		limiter: limiter,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		tr, err := transport.NewHTTP(transport.Options{
			Timeout:            cfg.Timeout,
			UserAgent:          cfg.UserAgent,
			ProxyURL:           cfg.Proxy,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		})
		if err != nil {
			return nil, &apierr.ConfigError{Message: "transport setup failed: " + err.Error()}
		}
		c.transport = tr
	}

	return c, nil
}

// NewFromEnvironment builds a client from PERPLEXITY_* environment variables.
func NewFromEnvironment(opts ...Option) (*Client, error) {
	cfg, err := FromEnvironment()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Chat performs a synchronous chat completion.
func (c *Client) Chat(ctx context.Context, req schema.ChatRequest) (*schema.ChatResponse, error) {
	req.Stream = false
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &apierr.ParseError{Message: "encode request", Cause: err}
	}

	body, err := c.run(ctx, func(ctx context.Context) (*transport.Result, error) {
		return c.transport.Send(ctx, http.MethodPost, c.completionsURL(), c.headers(), payload)
	})
	if err != nil {
		return nil, err
	}

	var resp schema.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &apierr.ParseError{Message: "decode response", Cause: err}
	}
	return &resp, nil
}

// ChatResult is the outcome of an asynchronous chat completion.
type ChatResult struct {
	Response *schema.ChatResponse
	Err      error
}

// ChatAsync runs Chat in a goroutine and delivers the single outcome on the
// returned channel. The channel is buffered, so the result never blocks on
// an absent receiver.
func (c *Client) ChatAsync(ctx context.Context, req schema.ChatRequest) <-chan ChatResult {
	ch := make(chan ChatResult, 1)
	go func() {
		resp, err := c.Chat(ctx, req)
		ch <- ChatResult{Response: resp, Err: err}
		close(ch)
	}()
	return ch
}

// ChatStream performs a streaming completion, invoking fn for every chunk
// until the stream ends or fn returns an error. The exchange is admitted
// through the rate limiter but not retried: a partially delivered stream
// cannot be safely replayed.
func (c *Client) ChatStream(ctx context.Context, req schema.ChatRequest, fn func(schema.StreamChunk) error) error {
	req.Stream = true
	if err := req.Validate(); err != nil {
		return err
	}
	if fn == nil {
		return &apierr.ValidationError{Message: "stream callback is required"}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return &apierr.ParseError{Message: "encode request", Cause: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	res, err := c.transport.Send(ctx, http.MethodPost, c.completionsURL(), c.headers(), payload)
	body, classified := classify(res, err)
	if classified != nil {
		return classified
	}

	return decodeStream(bytes.NewReader(body), fn)
}

// RateLimiter exposes the admission controller for management and
// introspection (status, reset, runtime limit changes).
func (c *Client) RateLimiter() *ratelimit.Limiter {
	return c.limiter
}

// Config returns the effective client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) completionsURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}

func decodeStream(r io.Reader, fn func(schema.StreamChunk) error) error {
	events := transport.NewEventReader(r)
	for {
		data, err := events.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &apierr.NetworkError{Message: "read stream: " + err.Error(), Cause: err}
		}
		if string(bytes.TrimSpace(data)) == "[DONE]" {
			return nil
		}

		var chunk schema.StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return &apierr.ParseError{Message: "decode stream chunk", Cause: err}
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
}
