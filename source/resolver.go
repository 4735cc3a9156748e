// Package source dispatches source descriptors to their acquisition
// strategy and aggregates per-source outcomes. A source either acquires a
// git checkout (scanned and indexed afterwards) or resolves a URL set
// (static or sitemap-derived) fetched into a markdown directory.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semdocs/config"
	"github.com/c360studio/semdocs/index"
	"github.com/c360studio/semdocs/progress"
	"github.com/c360studio/semdocs/scanner"
	"github.com/c360studio/semdocs/source/gitclone"
	"github.com/c360studio/semdocs/source/sitemap"
	"github.com/c360studio/semdocs/source/webfetch"
	"github.com/c360studio/semdocs/source/weburl"
)

// Outcome is the structured result of resolving one source.
type Outcome struct {
	Name       string
	Success    bool
	Diagnostic string

	// Dirs are the acquired local directories (git sources only).
	Dirs []string

	// Files counts written markdown files (URL/sitemap sources) or
	// indexed files (git sources).
	Files int

	// Warnings are non-fatal per-item failures within the source.
	Warnings []string
}

// Summary aggregates a whole run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []Outcome
}

// Dirs names the directories a run writes into.
type Dirs struct {
	// Output receives one markdown directory per URL/sitemap source.
	Output string
	// Index receives one index file per git source.
	Index string
	// Work holds per-source git working directories; empty means the
	// system temp directory.
	Work string
}

// Resolver resolves sources. Each source owns its working and output
// directories, so distinct sources can resolve concurrently without
// coordination.
type Resolver struct {
	acquirer *gitclone.Acquirer
	sitemaps *sitemap.Resolver
	fetcher  *webfetch.Fetcher
	reporter progress.Reporter
	logger   *slog.Logger
}

// NewResolver wires a resolver from the run configuration.
func NewResolver(cfg *config.Config, reporter progress.Reporter, logger *slog.Logger) *Resolver {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	fetchCfg := webfetch.Config{
		Timeout:        cfg.Fetch.Timeout,
		UserAgent:      cfg.Fetch.UserAgent,
		MaxContentSize: cfg.Fetch.MaxContentSize,
		Concurrency:    cfg.Fetch.Concurrency,
	}
	fetcher := webfetch.NewFetcher(fetchCfg, logger)

	return &Resolver{
		acquirer: gitclone.NewAcquirer(cfg.Git.Timeout),
		sitemaps: sitemap.NewResolver(nil, cfg.Fetch.Concurrency, logger),
		fetcher:  fetcher,
		reporter: reporter,
		logger:   logger,
	}
}

// ResolveAll resolves every source under the given concurrency bound and
// returns the run summary. The run always completes: per-source failures
// are recorded, never propagated.
func (r *Resolver) ResolveAll(ctx context.Context, sources []config.Source, dirs Dirs, concurrency int) Summary {
	if concurrency < 1 {
		concurrency = 1
	}

	outcomes := make([]Outcome, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, src := range sources {
		g.Go(func() error {
			outcomes[i] = r.Resolve(gctx, src, dirs)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Total: len(sources)}
	for _, outcome := range outcomes {
		if outcome.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
			summary.Failures = append(summary.Failures, outcome)
		}
	}
	return summary
}

// Resolve dispatches one source to its strategy. Unexpected panics are
// demoted to a recorded failure so one bad source cannot take down the run.
func (r *Resolver) Resolve(ctx context.Context, src config.Source, dirs Dirs) (outcome Outcome) {
	outcome.Name = src.Name

	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			r.logger.Error("source resolution panicked",
				"source", src.Name, "panic", rec, "stack", string(buf[:n]))
			outcome.Success = false
			outcome.Diagnostic = fmt.Sprintf("internal error: %v", rec)
		}
		if outcome.Success {
			r.reporter.Succeed(fmt.Sprintf("%s: %d files", src.Name, outcome.Files))
		} else {
			r.reporter.Fail(fmt.Sprintf("%s: %s", src.Name, outcome.Diagnostic))
		}
		for _, warning := range outcome.Warnings {
			r.reporter.Warn(fmt.Sprintf("%s: %s", src.Name, warning))
		}
	}()

	r.reporter.Start(src.Name)

	var err error
	switch src.Mode() {
	case config.ModeGit:
		err = r.resolveGit(ctx, src, dirs, &outcome)
	case config.ModeSitemap:
		err = r.resolveSitemap(ctx, src, dirs, &outcome)
	default:
		err = r.resolveURLs(ctx, src, src.URLs, dirs, &outcome)
	}

	if err != nil {
		outcome.Success = false
		outcome.Diagnostic = err.Error()
		return outcome
	}
	outcome.Success = true
	return outcome
}

// resolveGit acquires a checkout, optionally preprocesses it, then scans
// and indexes the acquired paths.
func (r *Resolver) resolveGit(ctx context.Context, src config.Source, dirs Dirs, outcome *Outcome) error {
	workDir, err := newWorkDir(dirs.Work, src.Name)
	if err != nil {
		return err
	}

	r.reporter.Update(fmt.Sprintf("%s: cloning %s", src.Name, src.Repo))
	result, err := r.acquirer.Acquire(ctx, gitclone.Request{
		URL:      src.Repo,
		Paths:    src.Paths,
		Revision: src.Revision,
		WorkDir:  workDir,
	})
	if err != nil {
		return err
	}
	outcome.Dirs = result.Dirs
	r.logger.Info("acquired repository",
		"source", src.Name, "ref", result.Ref, "dirs", len(result.Dirs))

	if src.Preprocess == "html2md" {
		r.reporter.Update(fmt.Sprintf("%s: converting HTML", src.Name))
		converted, err := PreprocessHTML(result.Dirs, src.Selector)
		if err != nil {
			return fmt.Errorf("preprocess: %w", err)
		}
		r.logger.Info("preprocessed HTML files", "source", src.Name, "converted", converted)
	}

	// The sparse checkout contains only the requested paths, so one scan
	// of the checkout root indexes every acquired selector.
	entries, err := scanner.Scan(workDir, scanner.Filter{
		Include: src.Include,
		Exclude: src.Exclude,
		Ignore:  src.Ignore,
	})
	if err != nil {
		return err
	}
	outcome.Files = scanner.TotalFiles(entries)
	if _, err := index.Write(dirs.Index, src.Name, entries); err != nil {
		return err
	}
	return nil
}

// resolveSitemap expands a sitemap into a URL list and fetches it.
func (r *Resolver) resolveSitemap(ctx context.Context, src config.Source, dirs Dirs, outcome *Outcome) error {
	r.reporter.Update(fmt.Sprintf("%s: resolving sitemap", src.Name))
	urls, err := r.sitemaps.Resolve(ctx, src.Sitemap, src.Rules)
	if err != nil {
		return err
	}
	return r.resolveURLs(ctx, src, urls, dirs, outcome)
}

// resolveURLs fetches a URL list into the source's markdown directory.
func (r *Resolver) resolveURLs(ctx context.Context, src config.Source, urls []string, dirs Dirs, outcome *Outcome) error {
	urls = weburl.Dedupe(urls)
	r.reporter.Update(fmt.Sprintf("%s: fetching %d pages", src.Name, len(urls)))

	outDir := filepath.Join(dirs.Output, src.Name)
	result, err := r.fetcher.FetchAll(ctx, urls, outDir, src.Selector)
	if err != nil {
		return err
	}

	outcome.Files = len(result.Files)
	for _, failure := range result.Failures {
		outcome.Warnings = append(outcome.Warnings, failure.URL+": "+failure.Reason)
	}
	return nil
}

// newWorkDir creates a fresh, uniquely named working directory for one
// source's checkout.
func newWorkDir(workRoot, name string) (string, error) {
	suffix := uuid.NewString()[:8]
	if workRoot == "" {
		dir, err := os.MkdirTemp("", "semdocs-"+name+"-")
		if err != nil {
			return "", fmt.Errorf("create working directory: %w", err)
		}
		return dir, nil
	}

	dir := filepath.Join(workRoot, name+"-"+suffix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create working directory: %w", err)
	}
	return dir, nil
}
