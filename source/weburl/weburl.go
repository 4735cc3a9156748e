// Package weburl provides URL validation and list helpers for web-acquired
// documentation sources.
package weburl

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that a URL is absolute and uses http or https. Sources are
// user-configured, so private hosts and loopback addresses are legitimate
// targets (local doc servers, test fixtures).
func Validate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported scheme %q: only http and https URLs are allowed", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// Dedupe removes duplicate URLs, preserving first-occurrence order.
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// Domain extracts the host name from a URL for display purposes.
// Returns an empty string when the URL is invalid.
func Domain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
