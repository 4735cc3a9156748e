package webfetch

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/c360studio/semdocs/source/htmlmd"
)

// ContentKind records how a page's markdown was obtained.
type ContentKind string

// KindMarkdown is content served as markdown by the host; KindConverted is
// HTML converted locally.
const (
	KindMarkdown  ContentKind = "markdown"
	KindConverted ContentKind = "converted"
)

// Page is one fetched documentation page. Pages live only for the duration
// of a batch; they are discarded once written.
type Page struct {
	URL     string
	Title   string
	Content string
	Kind    ContentKind
}

// fetchPage retrieves the best markdown representation of one URL.
// The three retrieval steps are independent: a miss in one is not an error,
// only all three missing fails the page.
func (f *Fetcher) fetchPage(ctx context.Context, pageURL, selector string) (*Page, error) {
	// Step 1: content negotiation. Accept only when the host actually
	// declares a markdown content type.
	if body, contentType, err := f.get(ctx, pageURL, "text/markdown"); err == nil && isMarkdownContentType(contentType) {
		content := string(body)
		return &Page{
			URL:     pageURL,
			Title:   ExtractMarkdownTitle(content),
			Content: content,
			Kind:    KindMarkdown,
		}, nil
	}

	// Step 2: markdown-suffix probe. Static hosts often serve page.md next
	// to page.html with a wrong or missing Content-Type, so the declared
	// kind is ignored here.
	if probe, ok := markdownVariant(pageURL); ok {
		if body, _, err := f.get(ctx, probe, "text/markdown"); err == nil {
			content := string(body)
			return &Page{
				URL:     pageURL,
				Title:   ExtractMarkdownTitle(content),
				Content: content,
				Kind:    KindMarkdown,
			}, nil
		}
	}

	// Step 3: fetch as HTML and convert.
	body, _, err := f.get(ctx, pageURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(pageURL)
	result, err := f.converter.Convert(body, htmlmd.Options{
		Selector:     selector,
		StripChrome:  true,
		RewriteLinks: true,
		BaseURL:      base,
	})
	if err != nil {
		return nil, fmt.Errorf("convert HTML: %w", err)
	}

	title := result.Title
	if title == "" {
		title = "untitled"
	}

	content := result.Markdown
	if !strings.HasPrefix(content, "# ") {
		content = "# " + title + "\n\n" + content
	}

	return &Page{
		URL:     pageURL,
		Title:   title,
		Content: content,
		Kind:    KindConverted,
	}, nil
}

// markdownVariant derives the markdown-suffixed form of a URL: a trailing
// HTML-family extension is replaced by ".md", an extensionless path gets
// ".md" appended after stripping a trailing slash. Returns false when the
// URL is already markdown-suffixed or has no path to suffix.
func markdownVariant(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	p := strings.TrimSuffix(u.Path, "/")
	if p == "" || p == "/" {
		return "", false
	}

	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".md", ".markdown":
		return "", false
	case ".html", ".htm":
		p = p[:len(p)-len(ext)] + ".md"
	case "":
		p += ".md"
	default:
		// Some other extension; a markdown sibling is unlikely.
		return "", false
	}

	u.Path = p
	return u.String(), true
}
