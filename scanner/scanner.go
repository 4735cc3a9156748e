// Package scanner enumerates acquired checkout trees into an ordered
// directory to file-list mapping, ready for index encoding. Walks are
// sorted, so the enumeration is deterministic for the same tree.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DirEntry is one directory and its immediate files, paths relative to the
// scan root with forward slashes. The root directory is ".".
type DirEntry struct {
	Dir   string
	Files []string
}

// Filter selects files during a scan. Zero value passes everything.
type Filter struct {
	// Include globs (doublestar syntax, e.g. "**/*.md"). Empty includes all.
	Include []string

	// Exclude globs, applied after Include.
	Exclude []string

	// Ignore lists exact relative paths to drop, independent of globs.
	Ignore []string
}

// Scan walks root and returns its directory enumeration. Directories are
// sorted, files within each directory are sorted, and .git trees are
// skipped. Empty directories do not appear.
func Scan(root string, filter Filter) ([]DirEntry, error) {
	ignore := make(map[string]bool, len(filter.Ignore))
	for _, p := range filter.Ignore {
		ignore[filepath.ToSlash(p)] = true
	}

	byDir := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if ignore[rel] {
			return nil
		}
		match, err := matches(rel, filter)
		if err != nil {
			return err
		}
		if !match {
			return nil
		}

		dir := filepath.ToSlash(filepath.Dir(rel))
		byDir[dir] = append(byDir[dir], filepath.ToSlash(filepath.Base(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	entries := make([]DirEntry, 0, len(dirs))
	for _, dir := range dirs {
		files := byDir[dir]
		sort.Strings(files)
		entries = append(entries, DirEntry{Dir: dir, Files: files})
	}
	return entries, nil
}

// matches applies include/exclude globs to a relative path.
func matches(rel string, filter Filter) (bool, error) {
	if len(filter.Include) > 0 {
		included := false
		for _, pattern := range filter.Include {
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return false, fmt.Errorf("include pattern %q: %w", pattern, err)
			}
			if ok {
				included = true
				break
			}
		}
		if !included {
			return false, nil
		}
	}

	for _, pattern := range filter.Exclude {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// TotalFiles returns the file count across entries.
func TotalFiles(entries []DirEntry) int {
	total := 0
	for _, entry := range entries {
		total += len(entry.Files)
	}
	return total
}
