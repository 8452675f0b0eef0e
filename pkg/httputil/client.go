package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/slocmap/pkg/buildinfo"
	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/observability"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// DefaultMaxBytes bounds the size of a fetched document.
const DefaultMaxBytes = 64 << 20

// NewHTTPClient returns an http.Client with [DefaultTimeout].
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Client performs GET requests with shared headers.
type Client struct {
	http     *http.Client
	headers  map[string]string
	maxBytes int64
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }

// WithMaxBytes limits response bodies to n bytes.
func WithMaxBytes(n int64) ClientOption { return func(c *Client) { c.maxBytes = n } }

// NewClient creates a Client sending headers with every request. A
// User-Agent is set unless headers provides one.
func NewClient(headers map[string]string, opts ...ClientOption) *Client {
	h := map[string]string{"User-Agent": buildinfo.UserAgent()}
	for k, v := range headers {
		h[k] = v
	}
	c := &Client{http: NewHTTPClient(), headers: h, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch GETs url and returns the body.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, slerrors.Wrap(slerrors.ErrCodeInvalidSource, err, "invalid request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: slerrors.Wrap(slerrors.ErrCodeNetwork, err, "fetch %s", url)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(url, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, &RetryableError{Err: slerrors.Wrap(slerrors.ErrCodeNetwork, err, "read %s", url)}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, slerrors.New(slerrors.ErrCodeInvalidSource, "%s exceeds %d bytes", url, c.maxBytes)
	}
	return body, nil
}

func checkStatus(url string, resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return slerrors.New(slerrors.ErrCodeNotFound, "%s: not found", url)
	case code == http.StatusTooManyRequests, code >= 500:
		return &RetryableError{
			Err:   slerrors.New(slerrors.ErrCodeNetwork, "%s: status %d", url, code),
			After: retryAfter(resp.Header, time.Now()),
		}
	default:
		return slerrors.New(slerrors.ErrCodeNetwork, "%s: status %d %s", url, code, http.StatusText(code))
	}
}
