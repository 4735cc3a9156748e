// Package gitclone acquires selected paths from remote git repositories
// using shallow, sparse checkouts. Each acquisition works in a
// caller-provided empty directory and shells out to the git binary; all
// subprocess failures surface as diagnostics, never panics.
package gitclone

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// allowedProtocols defines the git URL protocols permitted for acquisition.
// Local paths and file:// are allowed for mirrors and fixtures.
var allowedProtocols = map[string]bool{
	"https": true,
	"git":   true,
	"ssh":   true,
	"file":  true,
}

// Request describes one acquisition.
type Request struct {
	// URL is the remote repository location.
	URL string

	// Paths are directory or exact-file selectors inside the repository.
	// "" and "." denote the repository root.
	Paths []string

	// Revision pins a branch, tag or commit. Empty means: try the remote
	// default branch, then "main", then "master".
	Revision string

	// WorkDir is an existing empty directory the checkout lands in.
	WorkDir string
}

// Result is a successful acquisition.
type Result struct {
	// Ref is the reference that was actually checked out.
	Ref string

	// Dirs are the local paths the selectors resolved to, in selector order.
	Dirs []string
}

// Acquirer performs sparse checkouts. Calls within one acquisition are
// strictly sequential: sparse-checkout state in a single working directory
// must not be mutated concurrently. Distinct working directories are
// independent, so separate sources may acquire in parallel.
type Acquirer struct {
	timeout time.Duration
}

// NewAcquirer creates an acquirer. timeout bounds each git subprocess.
func NewAcquirer(timeout time.Duration) *Acquirer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Acquirer{timeout: timeout}
}

// Acquire fetches the requested paths into req.WorkDir.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateRepoURL(req.URL); err != nil {
		return nil, err
	}
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("at least one path selector is required")
	}

	selectors := make([]string, len(req.Paths))
	for i, p := range req.Paths {
		selectors[i] = NormalizePath(p)
	}

	if _, err := a.run(ctx, req.WorkDir, "init"); err != nil {
		return nil, fmt.Errorf("git init: %w", err)
	}
	if _, err := a.run(ctx, req.WorkDir, "remote", "add", "origin", req.URL); err != nil {
		return nil, fmt.Errorf("git remote add: %w", err)
	}

	if err := a.configureSparse(ctx, req.WorkDir, selectors); err != nil {
		return nil, err
	}

	candidates := a.refCandidates(ctx, req)

	var lastErr error
	for _, ref := range candidates {
		if err := a.fetchCheckout(ctx, req.WorkDir, ref); err != nil {
			lastErr = err
			continue
		}
		dirs := resolveLocal(req.WorkDir, selectors)
		if len(dirs) == 0 {
			lastErr = fmt.Errorf("checkout of %q contains none of the requested paths", ref)
			continue
		}
		return &Result{Ref: ref, Dirs: dirs}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no requested paths found in %s", req.URL)
}

// configureSparse sets up the sparse-checkout tree for the selectors.
// A concrete file selector forces pattern-list mode; otherwise cone mode
// restricts to the listed directories. Root selectors disable sparse
// restriction entirely.
func (a *Acquirer) configureSparse(ctx context.Context, workDir string, selectors []string) error {
	dirs, files := classifySelectors(selectors)
	if len(dirs) == 0 && len(files) == 0 {
		// Everything resolves to the repository root: full tree.
		return nil
	}

	if len(files) > 0 {
		patterns := make([]string, 0, len(dirs)+len(files))
		for _, dir := range dirs {
			patterns = append(patterns, "/"+dir+"/**")
		}
		for _, file := range files {
			patterns = append(patterns, "/"+file)
		}
		args := append([]string{"sparse-checkout", "set", "--no-cone"}, patterns...)
		if _, err := a.run(ctx, workDir, args...); err != nil {
			return fmt.Errorf("sparse-checkout set: %w", err)
		}
		return nil
	}

	args := append([]string{"sparse-checkout", "set", "--cone"}, dirs...)
	if _, err := a.run(ctx, workDir, args...); err != nil {
		return fmt.Errorf("sparse-checkout set: %w", err)
	}
	return nil
}

// refCandidates builds the ordered reference list to try. An explicit
// revision is used alone; otherwise the remote default branch (when
// detectable) is tried before "main" and "master", duplicates removed.
func (a *Acquirer) refCandidates(ctx context.Context, req Request) []string {
	if req.Revision != "" {
		return []string{req.Revision}
	}

	var candidates []string
	if def := a.defaultBranch(ctx, req.WorkDir); def != "" {
		candidates = append(candidates, def)
	}
	for _, fallback := range []string{"main", "master"} {
		duplicate := false
		for _, existing := range candidates {
			if existing == fallback {
				duplicate = true
				break
			}
		}
		if !duplicate {
			candidates = append(candidates, fallback)
		}
	}
	return candidates
}

// defaultBranch queries the remote's HEAD symref. Empty on any failure.
func (a *Acquirer) defaultBranch(ctx context.Context, workDir string) string {
	out, err := a.run(ctx, workDir, "ls-remote", "--symref", "origin", "HEAD")
	if err != nil {
		return ""
	}
	// First line: "ref: refs/heads/<name>\tHEAD"
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "ref:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			return strings.TrimPrefix(fields[1], "refs/heads/")
		}
	}
	return ""
}

// fetchCheckout performs a depth-1 fetch of ref and checks it out.
func (a *Acquirer) fetchCheckout(ctx context.Context, workDir, ref string) error {
	if _, err := a.run(ctx, workDir, "fetch", "--depth", "1", "origin", ref); err != nil {
		return fmt.Errorf("fetch %q: %w", ref, err)
	}
	if _, err := a.run(ctx, workDir, "checkout", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("checkout %q: %w", ref, err)
	}
	return nil
}

// run executes one git subprocess in dir with interactive credential
// prompting disabled, so missing-credential situations fail fast.
func (a *Acquirer) run(ctx context.Context, dir string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// ValidateRepoURL checks that a repository location uses an allowed
// protocol. SSH shorthand (git@host:owner/repo) and plain local paths pass.
func ValidateRepoURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("repository URL is required")
	}
	if strings.HasPrefix(rawURL, "git@") {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}
	if parsed.Scheme == "" {
		// Local path.
		return nil
	}
	if !allowedProtocols[strings.ToLower(parsed.Scheme)] {
		return fmt.Errorf("protocol %q not allowed; must be https, git, ssh or file", parsed.Scheme)
	}
	return nil
}

// NormalizePath canonicalizes a path selector: forward slashes, no leading
// "./", no leading or trailing slashes. "" and "." both denote the
// repository root and come back as "".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// classifySelectors splits normalized selectors into directories and files.
// A selector with a file extension is treated as a concrete file. Root
// selectors ("") are dropped: the root disables sparse restriction.
func classifySelectors(selectors []string) (dirs, files []string) {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		if path.Ext(sel) != "" {
			files = append(files, sel)
		} else {
			dirs = append(dirs, sel)
		}
	}
	return dirs, files
}

// resolveLocal maps selectors onto existing local paths under workDir,
// preserving selector order. A root selector resolves to workDir itself.
func resolveLocal(workDir string, selectors []string) []string {
	var dirs []string
	for _, sel := range selectors {
		local := workDir
		if sel != "" {
			local = filepath.Join(workDir, filepath.FromSlash(sel))
		}
		if _, err := os.Stat(local); err == nil {
			dirs = append(dirs, local)
		}
	}
	return dirs
}
