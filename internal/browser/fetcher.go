// Package browser provides a headless Chromium Fetcher for career sites that
// sit behind a JavaScript challenge.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"jobmate/harvester-service/internal/scraper"
)

const defaultNavigationTimeout = 60 * time.Second

// Options configures the browser session.
type Options struct {
	Headless  bool
	UserAgent string
	Timeout   time.Duration
}

// Fetcher drives one browser context. GET requests navigate a page so the
// challenge scripts run; other methods go through the context's request API
// and reuse the cookies the challenge left behind.
type Fetcher struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
}

// New starts playwright and a Chromium instance. Close must be called.
func New(opts Options) (*Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultNavigationTimeout
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	bctx, err := br.NewContext(ctxOpts)
	if err != nil {
		_ = br.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = br.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &Fetcher{pw: pw, browser: br, bctx: bctx, page: page, timeout: opts.Timeout}, nil
}

func (f *Fetcher) Do(ctx context.Context, req scraper.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	method := strings.ToUpper(req.Method)
	if method == "" || method == http.MethodGet {
		return f.navigate(req)
	}
	return f.request(method, req)
}

func (f *Fetcher) navigate(req scraper.Request) ([]byte, error) {
	if len(req.Header) > 0 {
		if err := f.page.SetExtraHTTPHeaders(flatten(req.Header)); err != nil {
			return nil, fmt.Errorf("set headers: %w", err)
		}
	}
	resp, err := f.page.Goto(req.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(f.timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("goto %s: %w", req.URL, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("goto %s: no response", req.URL)
	}
	if code := resp.Status(); code < 200 || code > 299 {
		body, _ := resp.Text()
		return nil, &scraper.StatusError{Code: code, URL: req.URL, Body: body}
	}
	if strings.Contains(resp.Headers()["content-type"], "json") {
		return resp.Body()
	}
	content, err := f.page.Content()
	if err != nil {
		return nil, fmt.Errorf("page content %s: %w", req.URL, err)
	}
	return []byte(content), nil
}

func (f *Fetcher) request(method string, req scraper.Request) ([]byte, error) {
	opts := playwright.APIRequestContextFetchOptions{
		Method:  playwright.String(method),
		Headers: flatten(req.Header),
		Timeout: playwright.Float(float64(f.timeout.Milliseconds())),
	}
	if req.Body != nil {
		opts.Data = req.Body
		if _, ok := opts.Headers["Content-Type"]; !ok {
			opts.Headers["Content-Type"] = "application/json"
		}
	}
	resp, err := f.bctx.Request().Fetch(req.URL, opts)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	defer func() { _ = resp.Dispose() }()
	body, err := resp.Body()
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", req.URL, err)
	}
	if code := resp.Status(); code < 200 || code > 299 {
		return nil, &scraper.StatusError{Code: code, URL: req.URL, Body: string(body)}
	}
	return body, nil
}

// Close shuts down the context, browser and driver.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	if err := f.bctx.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := f.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := f.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[k] = strings.Join(vs, ", ")
	}
	return out
}
