package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	defaultRetryDelay  = 5 * time.Second
	maxRetryDelay      = 60 * time.Second
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Request is one transport call. An empty Method means GET.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Get is shorthand for a bodiless GET request.
func Get(url string) Request {
	return Request{Method: http.MethodGet, URL: url}
}

// Fetcher is the transport adapters fetch through. Do returns the response
// body, or a *StatusError for a non-2xx status.
type Fetcher interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// HTTPOptions configures an HTTPFetcher. Zero values select defaults.
type HTTPOptions struct {
	Timeout    time.Duration
	RatePerSec float64 // 0 disables pacing
	RetryDelay time.Duration
	Header     http.Header
}

// HTTPFetcher is a cookie-keeping net/http client paced by a token bucket.
// A 429 response is retried once after RetryDelay (or Retry-After).
type HTTPFetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
	header     http.Header
}

// NewHTTPFetcher constructs a fetcher with its own cookie jar.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultHTTPTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	jar, _ := cookiejar.New(nil)
	return &HTTPFetcher{
		client:     &http.Client{Timeout: opts.Timeout, Jar: jar},
		limiter:    rate.NewLimiter(limit, 1),
		retryDelay: opts.RetryDelay,
		header:     opts.Header.Clone(),
	}
}

func (f *HTTPFetcher) Do(ctx context.Context, req Request) ([]byte, error) {
	body, retryAfter, err := f.do(ctx, req)
	if err == nil || retryAfter == 0 {
		return body, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryAfter):
	}
	body, _, err = f.do(ctx, req)
	return body, err
}

// do performs one attempt. A non-zero duration means the caller may retry.
func (f *HTTPFetcher) do(ctx context.Context, r Request) ([]byte, time.Duration, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var reqBody io.Reader
	if r.Body != nil {
		reqBody = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	for k, vs := range f.header {
		req.Header[k] = vs
	}
	for k, vs := range r.Header {
		req.Header[k] = vs
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Code: resp.StatusCode, URL: r.URL, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, f.retryAfter(resp.Header.Get("Retry-After")), serr
		}
		return nil, 0, serr
	}
	return body, 0, nil
}

func (f *HTTPFetcher) retryAfter(h string) time.Duration {
	if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
		d := time.Duration(secs) * time.Second
		if d > maxRetryDelay {
			d = maxRetryDelay
		}
		return d
	}
	return f.retryDelay
}
