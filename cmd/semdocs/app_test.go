package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semdocs/config"
)

func TestRootCmdSubcommands(t *testing.T) {
	cmd := rootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "sync")
	assert.Contains(t, names, "version")
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()

	applyOverrides(cfg, syncOptions{outputDir: "docs", concurrency: 12})
	assert.Equal(t, "docs", cfg.Output.Dir)
	assert.Equal(t, 12, cfg.Fetch.SourceConcurrency)
	assert.Equal(t, "corpus-index", cfg.Output.IndexDir)

	// Zero values leave the config alone.
	applyOverrides(cfg, syncOptions{})
	assert.Equal(t, "docs", cfg.Output.Dir)
	assert.Equal(t, 12, cfg.Fetch.SourceConcurrency)
}

func TestResolveDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/project", "corpus"), resolveDir("/project", "corpus"))
	assert.Equal(t, "/abs/corpus", resolveDir("/project", "/abs/corpus"))
	assert.Equal(t, "", resolveDir("/project", ""))
}

func TestSyncOnceEmptyConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("sources: []\n"), 0o644))

	err := syncOnce(context.Background(), path, syncOptions{}, newLogger("error"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
