// Package config provides configuration loading and validation for semdocs.
package config

import (
	"fmt"
	"time"

	"github.com/c360studio/semdocs/source/gitclone"
	"github.com/c360studio/semdocs/source/sitemap"
)

// Config is the complete semdocs configuration.
type Config struct {
	Sources []Source     `yaml:"sources"`
	Output  OutputConfig `yaml:"output"`
	Fetch   FetchConfig  `yaml:"fetch"`
	Git     GitConfig    `yaml:"git"`
}

// OutputConfig names the directories the run writes into.
type OutputConfig struct {
	// Dir receives one markdown directory per URL/sitemap source.
	Dir string `yaml:"dir"`
	// IndexDir receives one index file per git source.
	IndexDir string `yaml:"index_dir"`
	// WorkDir holds per-source git working directories. Empty means the
	// system temp directory.
	WorkDir string `yaml:"work_dir"`
}

// FetchConfig configures HTTP retrieval.
type FetchConfig struct {
	// Concurrency bounds simultaneous fetches within one source.
	Concurrency int `yaml:"concurrency"`
	// SourceConcurrency bounds sources resolved in parallel.
	SourceConcurrency int `yaml:"source_concurrency"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent overrides the default request user agent.
	UserAgent string `yaml:"user_agent"`
	// MaxContentSize caps response bodies in bytes.
	MaxContentSize int64 `yaml:"max_content_size"`
}

// GitConfig configures repository acquisition.
type GitConfig struct {
	// Timeout bounds each git subprocess.
	Timeout time.Duration `yaml:"timeout"`
}

// Source describes one documentation source. Exactly one acquisition mode
// must be set: Repo (+Paths), URLs, or Sitemap.
type Source struct {
	// Name identifies the source; it becomes the output subdirectory or
	// index file name.
	Name string `yaml:"name"`

	// Repo is a git repository URL; Paths select directories or files
	// inside it, Revision optionally pins a branch, tag or commit.
	Repo     string   `yaml:"repo,omitempty"`
	Paths    []string `yaml:"paths,omitempty"`
	Revision string   `yaml:"revision,omitempty"`

	// URLs is a static page list.
	URLs []string `yaml:"urls,omitempty"`

	// Sitemap is a sitemap.xml endpoint; Rules filter the URL set.
	Sitemap string         `yaml:"sitemap,omitempty"`
	Rules   []sitemap.Rule `yaml:"rules,omitempty"`

	// Selector is an optional content-extraction selector for HTML pages.
	Selector string `yaml:"selector,omitempty"`

	// Preprocess names a preprocessing directive for acquired trees.
	// Supported: "html2md".
	Preprocess string `yaml:"preprocess,omitempty"`

	// Include/Exclude filter scanned files of a git source (doublestar
	// globs); Ignore drops exact relative paths.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	Ignore  []string `yaml:"ignore,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:      "corpus",
			IndexDir: "corpus-index",
		},
		Fetch: FetchConfig{
			Concurrency:       8,
			SourceConcurrency: 4,
			Timeout:           30 * time.Second,
			MaxContentSize:    10 << 20,
		},
		Git: GitConfig{
			Timeout: 5 * time.Minute,
		},
	}
}

// Validate checks that the configuration is usable. Validation failures are
// fatal: nothing is acquired when any source is misconfigured.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Output.IndexDir == "" {
		return fmt.Errorf("output.index_dir is required")
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}
	if c.Fetch.SourceConcurrency < 1 {
		return fmt.Errorf("fetch.source_concurrency must be at least 1")
	}

	names := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if err := src.Validate(); err != nil {
			return fmt.Errorf("source %d (%s): %w", i, src.Name, err)
		}
		if names[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		names[src.Name] = true
	}
	return nil
}

// Mode identifies a source's acquisition strategy.
type Mode string

// The three acquisition strategies.
const (
	ModeGit     Mode = "git"
	ModeURLs    Mode = "urls"
	ModeSitemap Mode = "sitemap"
)

// Mode returns the source's acquisition mode. Only meaningful after
// Validate.
func (s *Source) Mode() Mode {
	switch {
	case s.Repo != "":
		return ModeGit
	case s.Sitemap != "":
		return ModeSitemap
	default:
		return ModeURLs
	}
}

// Validate checks a single source descriptor.
func (s *Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	modes := 0
	if s.Repo != "" {
		modes++
	}
	if len(s.URLs) > 0 {
		modes++
	}
	if s.Sitemap != "" {
		modes++
	}
	if modes == 0 {
		return fmt.Errorf("one of repo, urls or sitemap is required")
	}
	if modes > 1 {
		return fmt.Errorf("repo, urls and sitemap are mutually exclusive")
	}

	if s.Repo != "" {
		if err := gitclone.ValidateRepoURL(s.Repo); err != nil {
			return err
		}
		if len(s.Paths) == 0 {
			return fmt.Errorf("paths is required with repo")
		}
	}
	if s.Repo == "" {
		if len(s.Paths) > 0 {
			return fmt.Errorf("paths is only valid with repo")
		}
		if s.Revision != "" {
			return fmt.Errorf("revision is only valid with repo")
		}
		if s.Preprocess != "" {
			return fmt.Errorf("preprocess is only valid with repo")
		}
	}
	if s.Sitemap == "" && len(s.Rules) > 0 {
		return fmt.Errorf("rules is only valid with sitemap")
	}
	if s.Preprocess != "" && s.Preprocess != "html2md" {
		return fmt.Errorf("unknown preprocess directive %q", s.Preprocess)
	}
	return nil
}
