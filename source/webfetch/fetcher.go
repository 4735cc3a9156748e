// Package webfetch retrieves documentation pages over HTTP and writes them
// to an output directory as Markdown, one file per URL. Each URL is tried
// three ways: a content-negotiated markdown fetch, a markdown-suffix probe,
// and finally an HTML fetch converted through htmlmd.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/semdocs/source/htmlmd"
	"github.com/c360studio/semdocs/source/weburl"
)

// DefaultUserAgent identifies semdocs to documentation hosts.
const DefaultUserAgent = "semdocs/0.1 (+https://github.com/c360studio/semdocs)"

// maxRedirects caps redirect chains per request.
const maxRedirects = 5

// markdownContentTypes are the media types accepted as a markdown
// representation during content negotiation.
var markdownContentTypes = map[string]bool{
	"text/markdown":   true,
	"text/x-markdown": true,
}

// Config holds HTTP fetch settings.
type Config struct {
	// Timeout bounds each request, connection included.
	Timeout time.Duration

	// UserAgent is sent on every request; empty selects DefaultUserAgent.
	UserAgent string

	// MaxContentSize caps response bodies in bytes.
	MaxContentSize int64

	// Concurrency bounds simultaneous page fetches within one batch.
	Concurrency int
}

// DefaultConfig returns fetch settings suitable for public doc hosts.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		UserAgent:      DefaultUserAgent,
		MaxContentSize: 10 << 20,
		Concurrency:    8,
	}
}

// Fetcher fetches documentation pages and converts them to markdown.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
	concurrency    int
	converter      *htmlmd.Converter
	logger         *slog.Logger
}

// NewFetcher creates a fetcher from cfg.
func NewFetcher(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxContentSize <= 0 {
		cfg.MaxContentSize = DefaultConfig().MaxContentSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: cfg.Timeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent:      cfg.UserAgent,
		maxContentSize: cfg.MaxContentSize,
		concurrency:    cfg.Concurrency,
		converter:      htmlmd.NewConverter(),
		logger:         logger,
	}
}

// get performs one GET with the given Accept header and returns the body and
// declared content type. Non-2xx statuses are errors.
func (f *Fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, string, error) {
	if err := weburl.Validate(rawURL); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	limited := io.LimitReader(resp.Body, f.maxContentSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxContentSize {
		return nil, "", fmt.Errorf("content too large (exceeds %d bytes)", f.maxContentSize)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// isMarkdownContentType reports whether a Content-Type header declares a
// markdown representation.
func isMarkdownContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return markdownContentTypes[strings.ToLower(mediaType)]
}

// ExtractMarkdownTitle returns the text of the first top-level heading, or
// "untitled" when the document has none.
func ExtractMarkdownTitle(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return "untitled"
}
