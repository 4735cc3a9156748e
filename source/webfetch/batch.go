package webfetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semdocs/source/filename"
)

// Failure records one URL that yielded no content.
type Failure struct {
	URL    string
	Reason string
}

// BatchResult summarizes one fetch-and-write pass.
type BatchResult struct {
	// Files are the written file paths, in input URL order.
	Files []string

	// Failures are the URLs that produced nothing, in input URL order.
	// Non-empty Failures with non-empty Files is a partial success.
	Failures []Failure
}

// FetchAll fetches every URL, converts as needed, and writes one markdown
// file per successful URL into outDir. Fetches run under the configured
// concurrency bound; per-URL failures are collected, and only zero successes
// fails the batch. File names are derived from page titles in input order,
// so output is deterministic for the same input list.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, outDir, selector string) (*BatchResult, error) {
	pages := make([]*Page, len(urls))
	errs := make([]error, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, pageURL := range urls {
		g.Go(func() error {
			page, err := f.fetchPage(gctx, pageURL, selector)
			if err != nil {
				errs[i] = err
				f.logger.Warn("page fetch failed", "url", pageURL, "error", err)
				return nil
			}
			pages[i] = page
			return nil
		})
	}
	// Settle-all: goroutines never return an error, Wait is for completion.
	_ = g.Wait()

	result := &BatchResult{}
	var fetched []*Page
	for i, page := range pages {
		if page == nil {
			result.Failures = append(result.Failures, Failure{URL: urls[i], Reason: errs[i].Error()})
			continue
		}
		fetched = append(fetched, page)
	}

	if len(fetched) == 0 {
		return nil, fmt.Errorf("all %d URLs failed: %s", len(urls), joinFailures(result.Failures))
	}

	titles := make([]string, len(fetched))
	for i, page := range fetched {
		titles[i] = page.Title
	}
	names := filename.Derive(titles)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	for i, page := range fetched {
		dest := filepath.Join(outDir, names[i]+".md")
		if err := os.WriteFile(dest, []byte(page.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", dest, err)
		}
		result.Files = append(result.Files, dest)
	}

	return result, nil
}

// joinFailures renders failures as one aggregate diagnostic.
func joinFailures(failures []Failure) string {
	parts := make([]string, len(failures))
	for i, failure := range failures {
		parts[i] = failure.URL + ": " + failure.Reason
	}
	return strings.Join(parts, "; ")
}
