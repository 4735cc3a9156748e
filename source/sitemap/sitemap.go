// Package sitemap resolves sitemap.xml documents into flat URL lists.
// Sitemap indexes are followed one level deep; child sitemaps are fetched
// concurrently and a failing child degrades the result instead of aborting
// it. Sitemaps are re-fetched on every run, never cached.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

// urlSet is a regular <urlset> sitemap.
type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// sitemapIndex is a <sitemapindex> whose entries point to child sitemaps.
type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Resolver fetches and flattens sitemaps.
type Resolver struct {
	client      *http.Client
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a resolver. concurrency bounds child sitemap fetches.
func NewResolver(client *http.Client, concurrency int, logger *slog.Logger) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, concurrency: concurrency, logger: logger}
}

// Resolve fetches sitemapURL and returns the filtered flat URL list it
// describes. The result preserves child order, then in-document order.
// An empty result is an error distinct from a fetch failure.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string, rules []Rule) ([]string, error) {
	body, err := r.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	}

	var urls []string
	if children := parseIndex(body); children != nil {
		urls = r.resolveChildren(ctx, children)
	} else {
		urls, err = parseURLSet(body)
		if err != nil {
			return nil, fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
		}
	}

	urls = Filter(urls, rules)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in sitemap %s", sitemapURL)
	}
	return urls, nil
}

// resolveChildren fetches every child sitemap concurrently. A child failure
// is logged and contributes an empty set.
func (r *Resolver) resolveChildren(ctx context.Context, children []string) []string {
	results := make([][]string, len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, child := range children {
		g.Go(func() error {
			body, err := r.fetch(gctx, child)
			if err != nil {
				r.logger.Warn("child sitemap fetch failed", "url", child, "error", err)
				return nil
			}
			urls, err := parseURLSet(body)
			if err != nil {
				r.logger.Warn("child sitemap parse failed", "url", child, "error", err)
				return nil
			}
			results[i] = urls
			return nil
		})
	}
	// Goroutines only return nil; Wait is for completion.
	_ = g.Wait()

	var all []string
	for _, urls := range results {
		all = append(all, urls...)
	}
	return all
}

// fetch retrieves a sitemap body.
func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

// parseIndex returns child sitemap URLs when body is a sitemap index,
// nil otherwise.
func parseIndex(body []byte) []string {
	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err != nil {
		return nil
	}
	children := make([]string, 0, len(idx.Sitemaps))
	for _, sm := range idx.Sitemaps {
		if loc := strings.TrimSpace(sm.Loc); loc != "" {
			children = append(children, loc)
		}
	}
	if len(children) == 0 {
		return nil
	}
	return children
}

// parseURLSet extracts trimmed location values from a regular sitemap.
func parseURLSet(body []byte) ([]string, error) {
	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}
