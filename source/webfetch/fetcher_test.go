package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher() *Fetcher {
	cfg := DefaultConfig()
	cfg.Concurrency = 4
	return NewFetcher(cfg, nil)
}

func TestFetchPageContentNegotiation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			fmt.Fprint(w, "# Negotiated Page\n\nBody text.")
			return
		}
		http.Error(w, "unexpected", http.StatusInternalServerError)
	}))
	defer srv.Close()

	page, err := newTestFetcher().fetchPage(context.Background(), srv.URL+"/docs/guide", "")
	require.NoError(t, err)
	assert.Equal(t, KindMarkdown, page.Kind)
	assert.Equal(t, "Negotiated Page", page.Title)
	assert.Contains(t, page.Content, "Body text.")
}

func TestFetchPageSuffixProbe(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Negotiation miss: markdown Accept gets HTML back.
	mux.HandleFunc("/docs/guide.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><main><p>html page</p></main></body></html>")
	})
	// Probe hit, with a misconfigured content type.
	mux.HandleFunc("/docs/guide.md", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, "# Probed Page\n\nFrom the static host.")
	})

	page, err := newTestFetcher().fetchPage(context.Background(), srv.URL+"/docs/guide.html", "")
	require.NoError(t, err)
	assert.Equal(t, KindMarkdown, page.Kind)
	assert.Equal(t, "Probed Page", page.Title)
}

func TestFetchPageHTMLFallback(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Accept"), "text/markdown") {
			http.Error(w, "no markdown here", http.StatusNotAcceptable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Fallback Guide</title></head>
<body><nav>chrome</nav><main><p>Converted content.</p></main></body></html>`)
	})
	mux.HandleFunc("/guide.md", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	page, err := newTestFetcher().fetchPage(context.Background(), srv.URL+"/guide", "")
	require.NoError(t, err)
	assert.Equal(t, KindConverted, page.Kind)
	assert.Equal(t, "Fallback Guide", page.Title)
	assert.True(t, strings.HasPrefix(page.Content, "# Fallback Guide"),
		"converted content must begin with a title heading, got %q", page.Content[:min(40, len(page.Content))])
	assert.Contains(t, page.Content, "Converted content.")
	assert.NotContains(t, page.Content, "chrome")
}

func TestMarkdownVariant(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		ok       bool
	}{
		{name: "html extension", url: "https://x.test/docs/a.html", expected: "https://x.test/docs/a.md", ok: true},
		{name: "htm extension", url: "https://x.test/docs/a.htm", expected: "https://x.test/docs/a.md", ok: true},
		{name: "extensionless", url: "https://x.test/docs/guide", expected: "https://x.test/docs/guide.md", ok: true},
		{name: "trailing slash", url: "https://x.test/docs/guide/", expected: "https://x.test/docs/guide.md", ok: true},
		{name: "already markdown", url: "https://x.test/docs/a.md", ok: false},
		{name: "root", url: "https://x.test/", ok: false},
		{name: "other extension", url: "https://x.test/file.pdf", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := markdownVariant(tt.url)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestFetchAllWritesFiles(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, p := range []struct{ path, title string }{
		{"/a", "Alpha - X Docs"},
		{"/b", "Beta - X Docs"},
	} {
		mux.HandleFunc(p.path+".md", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "# %s\n\ncontent", p.title)
		})
		mux.HandleFunc(p.path, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no", http.StatusNotFound)
		})
	}
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/broken.md", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	outDir := t.TempDir()
	urls := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/broken"}

	result, err := newTestFetcher().FetchAll(context.Background(), urls, outDir, "")
	require.NoError(t, err)

	require.Len(t, result.Files, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, srv.URL+"/broken", result.Failures[0].URL)

	// Shared " - X Docs" suffix is stripped before slugging.
	assert.Equal(t, "alpha.md", filepath.Base(result.Files[0]))
	assert.Equal(t, "beta.md", filepath.Base(result.Files[1]))

	content, err := os.ReadFile(result.Files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "Alpha - X Docs")
}

func TestFetchAllAllFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	outDir := t.TempDir()
	urls := []string{srv.URL + "/a", srv.URL + "/b"}

	_, err := newTestFetcher().FetchAll(context.Background(), urls, outDir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 URLs failed")

	entries, readErr := os.ReadDir(outDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no files may be written when every URL fails")
}

func TestExtractMarkdownTitle(t *testing.T) {
	assert.Equal(t, "Hello", ExtractMarkdownTitle("# Hello\n\nbody"))
	assert.Equal(t, "Later", ExtractMarkdownTitle("intro\n\n# Later\n"))
	assert.Equal(t, "untitled", ExtractMarkdownTitle("## only h2\n"))
}
