package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/c360studio/semdocs/config"
	"github.com/c360studio/semdocs/progress"
	"github.com/c360studio/semdocs/source"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semdocs"
)

// watchDebounce is how long to wait for further config changes before
// re-running a sync.
const watchDebounce = 500 * time.Millisecond

type syncOptions struct {
	configPath  string
	outputDir   string
	indexDir    string
	concurrency int
	watch       bool
	logLevel    string
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Documentation corpus acquisition",
		Long: `Semdocs acquires documentation corpora for local consumption.

Sources are declared in semdocs.yaml and come in three shapes:
- git repositories, sparse-checked-out to the requested paths
- sitemaps, expanded and filtered to a page list
- static URL lists

Web pages are fetched markdown-first and converted from HTML when no
markdown rendition exists.`,
	}

	cmd.AddCommand(syncCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func syncCmd() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Acquire all configured sources",
		Long: `Sync resolves every source in the configuration, writing markdown
directories and index files. Per-source failures are reported but do not
abort the run; sync fails only when no source succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (default: search for "+config.FileName+")")
	cmd.Flags().StringVar(&opts.outputDir, "output", "", "Override output directory")
	cmd.Flags().StringVar(&opts.indexDir, "index", "", "Override index directory")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Override source concurrency")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run sync when the config file changes")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func runSync(ctx context.Context, opts syncOptions) error {
	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := opts.configPath
	if configPath == "" {
		found, err := config.Find()
		if err != nil {
			return err
		}
		configPath = found
	}

	if err := syncOnce(ctx, configPath, opts, logger); err != nil {
		if !opts.watch {
			return err
		}
		// Watch mode keeps going so a config fix triggers a retry.
		logger.Error("sync failed", "error", err)
	}

	if !opts.watch {
		return nil
	}
	return watchConfig(ctx, configPath, opts, logger)
}

// syncOnce loads the config and resolves every source.
func syncOnce(ctx context.Context, configPath string, opts syncOptions, logger *slog.Logger) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Paths in the config are relative to the config file.
	baseDir := filepath.Dir(configPath)
	dirs := source.Dirs{
		Output: resolveDir(baseDir, cfg.Output.Dir),
		Index:  resolveDir(baseDir, cfg.Output.IndexDir),
		Work:   resolveDir(baseDir, cfg.Output.WorkDir),
	}

	logger.Info("starting sync",
		"config", configPath,
		"sources", len(cfg.Sources),
		"output", dirs.Output)

	resolver := source.NewResolver(cfg, progress.NewConsole(os.Stderr), logger)
	summary := resolver.ResolveAll(ctx, cfg.Sources, dirs, cfg.Fetch.SourceConcurrency)

	fmt.Printf("\n%d/%d sources succeeded\n", summary.Succeeded, summary.Total)
	for _, failure := range summary.Failures {
		fmt.Printf("  failed: %s: %s\n", failure.Name, failure.Diagnostic)
	}

	if summary.Succeeded == 0 && summary.Total > 0 {
		return fmt.Errorf("all %d sources failed", summary.Total)
	}
	return nil
}

// watchConfig re-runs the sync whenever the config file changes. Editors
// often replace files on save, so the watch covers the parent directory
// and filters to the config path.
func watchConfig(ctx context.Context, configPath string, opts syncOptions, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("watch %s: %w", configPath, err)
	}
	logger.Info("watching for config changes", "config", configPath)

	// Debounce timer, armed on the first relevant event.
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timer.C:
			logger.Info("config changed, re-syncing", "config", configPath)
			if err := syncOnce(ctx, configPath, opts, logger); err != nil {
				logger.Error("sync failed", "error", err)
			}
		}
	}
}

func applyOverrides(cfg *config.Config, opts syncOptions) {
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
	if opts.indexDir != "" {
		cfg.Output.IndexDir = opts.indexDir
	}
	if opts.concurrency > 0 {
		cfg.Fetch.SourceConcurrency = opts.concurrency
	}
}

func resolveDir(baseDir, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(baseDir, dir)
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
