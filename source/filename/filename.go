// Package filename derives unique, filesystem-safe base names from page
// titles. Titles scraped from documentation sites tend to share boilerplate
// ("Overview - Acme Docs", "Quickstart - Acme Docs"), so a common affix pass
// runs before slugification to keep the interesting part of each name.
package filename

import (
	"sort"
	"strconv"
	"strings"
)

// maxSlugLen caps slug length so derived file names stay portable.
const maxSlugLen = 100

// fallbackSlug is used when a title slugifies to nothing.
const fallbackSlug = "page"

// affixSeparators are the boundary markers a stripped affix must align with.
var affixSeparators = []string{" - ", " | ", ": ", " — ", " – "}

// Derive returns one unique slug per title, in input order. The result is
// deterministic for the same ordered input: common title boilerplate is
// stripped, each remainder is slugified, and collisions get a positional
// suffix.
func Derive(titles []string) []string {
	stripped := stripCommonAffixes(titles)

	names := make([]string, len(titles))
	used := make(map[string]bool, len(titles))
	for i, title := range stripped {
		slug := Slugify(title)
		if used[slug] {
			// The augmented form is recorded as-is; it is not re-checked
			// against natural slugs of later titles.
			slug = slug + "-" + strconv.Itoa(i)
		}
		used[slug] = true
		names[i] = slug
	}
	return names
}

// Slugify converts free text into a lowercase hyphen-delimited identifier.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// stripCommonAffixes removes shared title boilerplate. The raw common prefix
// and suffix come from comparing the lexicographic extremes of the sorted
// titles; each is then truncated to the longest separator-aligned run so the
// strip never cuts through a word.
func stripCommonAffixes(titles []string) []string {
	if len(titles) < 2 {
		out := make([]string, len(titles))
		copy(out, titles)
		return out
	}

	sorted := make([]string, len(titles))
	copy(sorted, titles)
	sort.Strings(sorted)
	first, last := sorted[0], sorted[len(sorted)-1]

	prefix := alignedPrefix(rawCommonPrefix(first, last))
	suffix := alignedSuffix(rawCommonSuffix(first, last))

	out := make([]string, len(titles))
	for i, title := range titles {
		t := title
		if prefix != "" && strings.HasPrefix(t, prefix) {
			t = t[len(prefix):]
		}
		if suffix != "" && strings.HasSuffix(t, suffix) {
			t = t[:len(t)-len(suffix)]
		}
		t = strings.TrimSpace(t)
		if t == "" {
			t = title
		}
		out[i] = t
	}
	return out
}

// rawCommonPrefix returns the longest common prefix of a and b.
func rawCommonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// rawCommonSuffix returns the longest common suffix of a and b.
func rawCommonSuffix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return a[len(a)-i:]
}

// alignedPrefix truncates a raw common prefix at the rightmost separator it
// contains, keeping the separator. Returns "" when no separator is present.
func alignedPrefix(raw string) string {
	best := -1
	for _, sep := range affixSeparators {
		if idx := strings.LastIndex(raw, sep); idx >= 0 && idx+len(sep) > best {
			best = idx + len(sep)
		}
	}
	if best < 0 {
		return ""
	}
	return raw[:best]
}

// alignedSuffix truncates a raw common suffix at the leftmost separator it
// contains, keeping the separator. Returns "" when no separator is present.
func alignedSuffix(raw string) string {
	best := -1
	for _, sep := range affixSeparators {
		if idx := strings.Index(raw, sep); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	if best < 0 {
		return ""
	}
	return raw[best:]
}
