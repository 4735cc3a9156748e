// Package htmlmd converts HTML documents into GitHub-flavored Markdown.
// It selects a content root, strips page chrome, optionally rewrites
// internal links to their markdown counterparts, and serializes the result.
// The package does no network or file I/O itself.
package htmlmd

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// rootCandidates are tried in order when the caller supplies no selector
// (or the supplied selector matches nothing).
var rootCandidates = []string{"main", "article", "#content", ".content", ".document"}

// excessiveLinesRe collapses runs of blank lines left over from conversion.
var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// htmlExtensions are the suffixes rewritten to ".md" by link rewriting.
var htmlExtensions = []string{".html", ".htm"}

// Options controls a single conversion pass.
type Options struct {
	// Selector is an optional content-extraction selector. When it matches
	// an element, that element becomes the conversion root.
	Selector string

	// StripChrome removes nav, header and footer elements from the root.
	// The URL-fetch path enables this; batch preprocessing of static HTML
	// dumps leaves chrome handling to the configured selector.
	StripChrome bool

	// RewriteLinks rewrites relative .html/.htm hrefs to .md.
	RewriteLinks bool

	// BaseURL, when set, is passed to the readability fallback.
	BaseURL *url.URL
}

// Result is the outcome of one conversion.
type Result struct {
	// Title is the document title text, empty when the page has none.
	Title string

	// Markdown is the converted content.
	Markdown string
}

// Converter converts HTML to markdown with documentation-focused extraction.
type Converter struct {
	md *md.Converter
}

// NewConverter creates a converter with GitHub-flavored markdown output
// (fenced code, tables, strikethrough, task lists).
func NewConverter() *Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &Converter{md: conv}
}

// Convert transforms an HTML document into markdown.
func (c *Converter) Convert(htmlSrc []byte, opts Options) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlSrc))
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	root := selectRoot(doc, opts.Selector)
	if root == nil && opts.StripChrome {
		// No recognizable content container. Static doc pages almost always
		// have one; for everything else a readability pass beats converting
		// the raw body wholesale.
		root = readabilityRoot(htmlSrc, opts.BaseURL)
	}
	if root == nil {
		root = doc.Find("body")
		if root.Length() == 0 {
			root = doc.Selection
		}
	}

	root.Find("script, style").Remove()
	if opts.StripChrome {
		root.Find("nav, header, footer").Remove()
	}
	if opts.RewriteLinks {
		rewriteLinks(root)
	}

	markdown := cleanMarkdown(c.md.Convert(root))

	return &Result{Title: title, Markdown: markdown}, nil
}

// selectRoot picks the conversion root: the caller selector when it matches,
// else the first matching candidate container. Returns nil when neither does.
func selectRoot(doc *goquery.Document, selector string) *goquery.Selection {
	if selector != "" {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel.First()
		}
	}
	for _, candidate := range rootCandidates {
		if sel := doc.Find(candidate); sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

// readabilityRoot runs readability extraction over the raw document and
// returns its article content as a selection, or nil when extraction fails
// or yields nothing substantive.
func readabilityRoot(htmlSrc []byte, base *url.URL) *goquery.Selection {
	if base == nil {
		base = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(htmlSrc), base)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Selection
	}
	return body
}

// rewriteLinks rewrites relative hrefs ending in an HTML-family extension to
// the markdown equivalent, preserving query string and fragment. Fragments,
// protocol-relative URLs, scheme-qualified URLs and empty hrefs are left
// untouched.
func rewriteLinks(root *goquery.Selection) {
	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if rewritten, ok := RewriteHref(href); ok {
			a.SetAttr("href", rewritten)
		}
	})
}

// RewriteHref returns the markdown-suffixed form of a relative HTML link.
// The second return is false when the href must be left as-is.
func RewriteHref(href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" {
		return "", false
	}

	lower := strings.ToLower(u.Path)
	ext := ""
	for _, candidate := range htmlExtensions {
		if strings.HasSuffix(lower, candidate) {
			ext = candidate
			break
		}
	}
	if ext == "" {
		return "", false
	}

	u.Path = u.Path[:len(u.Path)-len(ext)] + ".md"
	return u.String(), true
}

// cleanMarkdown trims conversion artifacts: excessive blank lines and
// trailing whitespace on each line.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
