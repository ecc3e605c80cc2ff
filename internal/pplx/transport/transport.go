// Package transport performs single HTTP request/response exchanges for the
// Perplexity client. It owns connection reuse and TLS settings; request
// admission, retries, and error classification live in the pplx package.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultUserAgent = "sonarlens/1.0"

// Result is the outcome of one completed exchange. A Result exists only
// when the server produced a response; transport-level failures surface as
// errors instead.
type Result struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Transport performs one blocking request/response exchange.
type Transport interface {
	Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Result, error)
}

// HTTPTransport sends exchanges over a shared net/http client.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

// Options control transport construction. The zero value of
// InsecureSkipVerify keeps TLS verification on; skipping it is an explicit
// opt-in.
type Options struct {
	Timeout            time.Duration
	UserAgent          string
	ProxyURL           string
	InsecureSkipVerify bool
}

// NewHTTP returns a transport backed by the process-wide shared
// http.Transport. Init is performed implicitly.
func NewHTTP(opts Options) (*HTTPTransport, error) {
	base, err := sharedTransport(opts.ProxyURL, opts.InsecureSkipVerify)
	if err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &HTTPTransport{
		client: &http.Client{
			Transport: base,
			Timeout:   opts.Timeout,
		},
		userAgent: userAgent,
	}, nil
}

// Send performs one exchange. The response body is fully read before
// returning; callers never see a partially-consumed stream.
func (t *HTTPTransport) Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Result, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header,
	}, nil
}
