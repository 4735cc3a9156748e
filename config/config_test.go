package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Sources = []Source{
		{Name: "repo-docs", Repo: "https://github.com/acme/docs.git", Paths: []string{"docs"}},
		{Name: "site-docs", Sitemap: "https://docs.acme.test/sitemap.xml"},
		{Name: "list-docs", URLs: []string{"https://docs.acme.test/a"}},
	}
	return cfg
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRequiresSources(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())
}

func TestValidateExactlyOneMode(t *testing.T) {
	tests := []struct {
		name   string
		source Source
	}{
		{
			name:   "no mode",
			source: Source{Name: "x"},
		},
		{
			name: "repo and urls",
			source: Source{
				Name:  "x",
				Repo:  "https://github.com/acme/docs.git",
				Paths: []string{"docs"},
				URLs:  []string{"https://x.test/a"},
			},
		},
		{
			name: "urls and sitemap",
			source: Source{
				Name:    "x",
				URLs:    []string{"https://x.test/a"},
				Sitemap: "https://x.test/sitemap.xml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.source.Validate())
		})
	}
}

func TestValidateSourceConstraints(t *testing.T) {
	assert.Error(t, (&Source{Name: "x", Repo: "https://g.test/r.git"}).Validate(),
		"repo without paths")
	assert.Error(t, (&Source{Name: "x", URLs: []string{"https://a.test"}, Revision: "main"}).Validate(),
		"revision without repo")
	assert.Error(t, (&Source{Name: "x", URLs: []string{"https://a.test"}, Preprocess: "html2md"}).Validate(),
		"preprocess without repo")
	assert.Error(t, (&Source{Name: "x", Repo: "https://g.test/r.git", Paths: []string{"d"}, Preprocess: "pdf"}).Validate(),
		"unknown preprocess directive")
	assert.Error(t, (&Source{Name: ""}).Validate(), "missing name")
}

func TestValidateDuplicateNames(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = append(cfg.Sources, Source{Name: "repo-docs", URLs: []string{"https://x.test/a"}})
	assert.Error(t, cfg.Validate())
}

func TestSourceMode(t *testing.T) {
	assert.Equal(t, ModeGit, (&Source{Repo: "https://g.test/r.git"}).Mode())
	assert.Equal(t, ModeSitemap, (&Source{Sitemap: "https://x.test/s.xml"}).Mode())
	assert.Equal(t, ModeURLs, (&Source{URLs: []string{"https://x.test/a"}}).Mode())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
output:
  dir: out
  index_dir: out-index
fetch:
  concurrency: 3
  timeout: 10s
sources:
  - name: api
    sitemap: https://docs.x.test/sitemap.xml
    rules:
      - prefix: docs/en/api
        subs: [sdks]
    selector: "#content"
  - name: repo
    repo: https://github.com/acme/docs.git
    paths: [docs, README.md]
    revision: v2
    preprocess: html2md
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 3, cfg.Fetch.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	// Defaults survive partial files.
	assert.Equal(t, 4, cfg.Fetch.SourceConcurrency)

	require.Len(t, cfg.Sources, 2)
	site := cfg.Sources[0]
	assert.Equal(t, ModeSitemap, site.Mode())
	require.Len(t, site.Rules, 1)
	assert.Equal(t, "docs/en/api", site.Rules[0].Prefix)
	assert.Equal(t, []string{"sdks"}, site.Rules[0].Subs)

	repo := cfg.Sources[1]
	assert.Equal(t, ModeGit, repo.Mode())
	assert.Equal(t, []string{"docs", "README.md"}, repo.Paths)
	assert.Equal(t, "v2", repo.Revision)
	assert.Equal(t, "html2md", repo.Preprocess)
}

func TestLoadInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: broken\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
