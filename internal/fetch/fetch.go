// Package fetch retrieves employer web pages and reduces them to readable text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; PitchPrep/1.0)"

// DefaultMaxBytes caps how much of a response body is read.
const DefaultMaxBytes = 2 << 20

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	// UseBrowser renders pages in headless Chrome when plain HTTP yields too little text.
	UseBrowser     bool
	BrowserTimeout time.Duration
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() Options {
	return Options{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBytes:       DefaultMaxBytes,
		BrowserTimeout: 30 * time.Second,
	}
}

// Fetcher fetches pages over HTTP with an optional headless browser fallback.
type Fetcher struct {
	client *http.Client
	opts   Options
	render func(ctx context.Context, url string, timeout time.Duration) (string, error)
	logger *zap.Logger
}

// New creates a Fetcher. Zero option values fall back to DefaultOptions.
func New(opts Options, logger *zap.Logger) *Fetcher {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = def.MaxBytes
	}
	if opts.BrowserTimeout <= 0 {
		opts.BrowserTimeout = def.BrowserTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		render: Render,
		logger: logger.Named("fetch"),
	}
}

// Get retrieves a URL. On a non-200 status the partial result is returned with an *Error.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes))
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         rawURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return result, nil
}

// PageText fetches a page and returns its main text. When browser rendering is
// enabled and the HTTP response looks like an unrendered single page app, the
// page is rendered in headless Chrome instead.
func (f *Fetcher) PageText(ctx context.Context, rawURL string) (string, error) {
	res, err := f.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	text, err := ExtractMainText(res.HTML, CompanyPageSelectors())
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to extract text", Cause: err}
	}
	if !f.opts.UseBrowser || !ShouldUseBrowser(text) {
		return text, nil
	}

	f.logger.Debug("falling back to browser rendering", zap.String("url", rawURL), zap.Int("http_chars", len(text)))
	html, err := f.render(ctx, rawURL, f.opts.BrowserTimeout)
	if err != nil {
		f.logger.Warn("browser rendering failed", zap.String("url", rawURL), zap.Error(err))
		return text, nil
	}
	rendered, err := ExtractMainText(html, CompanyPageSelectors())
	if err != nil || len(rendered) < len(text) {
		return text, nil
	}
	return rendered, nil
}
