package sitemap

import (
	"net/url"
	"strings"
)

// Rule includes URLs under a path prefix. The prefix itself and its direct
// children always match; deeper descendants match only when their first
// segment below the prefix is listed in Subs.
type Rule struct {
	// Prefix is a URL path prefix, compared with surrounding slashes trimmed.
	Prefix string `yaml:"prefix"`

	// Subs lists first-level sub-segments whose entire subtrees are included.
	Subs []string `yaml:"subs,omitempty"`
}

// Filter applies OR-combined rules to a URL list, preserving order. An empty
// rule list passes everything. Malformed URLs are silently excluded when any
// rules are present.
func Filter(urls []string, rules []Rule) []string {
	if len(rules) == 0 {
		return urls
	}

	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		path := strings.Trim(u.Path, "/")
		for _, rule := range rules {
			if rule.matches(path) {
				out = append(out, raw)
				break
			}
		}
	}
	return out
}

// matches reports whether a slash-trimmed URL path satisfies the rule.
func (r Rule) matches(path string) bool {
	prefix := strings.Trim(r.Prefix, "/")
	if prefix == "" {
		return true
	}
	if path == prefix {
		return true
	}
	if !strings.HasPrefix(path, prefix+"/") {
		return false
	}

	rest := path[len(prefix)+1:]
	segments := strings.Split(rest, "/")
	if len(segments) == 1 {
		// First-level children are always included.
		return true
	}
	for _, sub := range r.Subs {
		if segments[0] == sub {
			return true
		}
	}
	return false
}
