// Package index encodes the per-source corpus index: a compact,
// diff-friendly text listing of every directory and its files, one file per
// source. Downstream consumers read these instead of re-walking the corpus.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/semdocs/scanner"
)

// Encode renders the index document for one source. Format:
//
//	# <source name>
//	<dir>: <file> <file> ...
//
// Directories are emitted in entry order with /-separated relative paths;
// the root directory is ".".
func Encode(name string, entries []scanner.DirEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", name)
	for _, entry := range entries {
		b.WriteString(entry.Dir)
		b.WriteString(":")
		for _, file := range entry.Files {
			b.WriteString(" ")
			b.WriteString(file)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Write encodes and writes the index for one source to
// <indexDir>/<name>.txt, creating indexDir as needed.
func Write(indexDir, name string, entries []scanner.DirEntry) (string, error) {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return "", fmt.Errorf("create index directory: %w", err)
	}
	dest := filepath.Join(indexDir, name+".txt")
	if err := os.WriteFile(dest, []byte(Encode(name, entries)), 0o644); err != nil {
		return "", fmt.Errorf("write index %s: %w", dest, err)
	}
	return dest, nil
}
