package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/pixelaudit/pixelaudit/internal/config"
	"github.com/pixelaudit/pixelaudit/internal/model"
)

// defaultUserAgent mimics a current desktop browser. Tag managers and
// consent layers frequently serve reduced markup to obvious bots, which
// would produce false "not installed" results.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxRedirects bounds the redirect chain on the primary page fetch.
const maxRedirects = 10

// Fetcher retrieves pages and external scripts over HTTP.
//
// Design decision: One Fetcher serves both the page and its scripts rather
// than two clients because they share the header strategy, the connection
// pool, and the politeness limiter; only the deadlines differ.
type Fetcher struct {
	// client is the shared HTTP client. Redirects are followed up to
	// maxRedirects; the final URL is recorded on the PageContent.
	client *http.Client

	// pageTimeout bounds FetchPage.
	pageTimeout time.Duration

	// scriptTimeout bounds each FetchScript call.
	scriptTimeout time.Duration

	// userAgent is sent on every request.
	userAgent string

	// cookie is an optional Cookie header value from per-site config.
	cookie string

	// headers are extra request headers from per-site config.
	headers map[string]string

	// limiter throttles outbound script fetches.
	limiter *rate.Limiter

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPageTimeout sets the primary page fetch deadline.
func WithPageTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.pageTimeout = d
	}
}

// WithScriptTimeout sets the per-script fetch deadline.
func WithScriptTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.scriptTimeout = d
	}
}

// WithUserAgent overrides the default browser-like User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithSiteConfig applies per-site cookie and header overrides.
func WithSiteConfig(site config.SiteConfig) Option {
	return func(f *Fetcher) {
		f.cookie = site.Cookie
		f.headers = site.Headers
		if site.UserAgent != "" {
			f.userAgent = site.UserAgent
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxConnsPerHost:     10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: redirectPolicy,
		},
		pageTimeout:   config.DefaultPageTimeout,
		scriptTimeout: config.DefaultScriptTimeout,
		userAgent:     defaultUserAgent,
		limiter:       rate.NewLimiter(rate.Limit(config.DefaultFetchRate), config.DefaultFetchRate),
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// redirectPolicy bounds the redirect chain and blocks non-http(s) schemes.
func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after too many redirects")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return errors.New("redirect to non-http(s) scheme blocked")
	}
	return nil
}

// ValidateURL checks that raw is a well-formed absolute http(s) URL.
// Returns the parsed URL or ErrInvalidURL.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// FetchPage retrieves the page at rawURL and returns its content.
// The returned PageContent records the final URL after redirects; all
// relative-URL resolution downstream must use it, not rawURL.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (*model.PageContent, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ErrInvalidURL
	}
	f.setHeaders(req, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	// Decode to UTF-8 based on Content-Type and meta charset hints.
	reader, err := charset.NewReader(io.LimitReader(resp.Body, model.MaxPageSize), resp.Header.Get("Content-Type"))
	if err != nil {
		// Undecodable charset: fall back to the raw bytes.
		reader = io.LimitReader(resp.Body, model.MaxPageSize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, err
	}

	finalURL := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	f.logger.Debug("page fetched",
		"url", rawURL,
		"final_url", finalURL,
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	return &model.PageContent{
		HTML:     string(body),
		FinalURL: finalURL,
		Status:   resp.StatusCode,
	}, nil
}

// FetchScript retrieves the body of an external script.
// Any failure (timeout, non-2xx, network error) returns ok=false rather
// than an error: script fetches are best-effort and individually non-fatal.
func (f *Fetcher) FetchScript(ctx context.Context, absoluteURL string) (content string, ok bool) {
	if _, err := ValidateURL(absoluteURL); err != nil {
		return "", false
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, f.scriptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absoluteURL, nil)
	if err != nil {
		return "", false
	}
	f.setHeaders(req, "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("script fetch failed", "url", absoluteURL, "error", err)
		return "", false
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug("script fetch non-2xx", "url", absoluteURL, "status", resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, model.MaxScriptSize))
	if err != nil {
		f.logger.Debug("script body read failed", "url", absoluteURL, "error", err)
		return "", false
	}

	return string(body), true
}

// setHeaders applies the human-like header set plus per-site overrides.
func (f *Fetcher) setHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
}

// isTimeout reports whether err represents an exceeded deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || errors.Is(urlErr.Err, context.DeadlineExceeded)
	}
	return false
}
