package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semdocs/scanner"
)

func TestEncode(t *testing.T) {
	entries := []scanner.DirEntry{
		{Dir: ".", Files: []string{"readme.md"}},
		{Dir: "api", Files: []string{"auth.md", "ref.md"}},
	}

	got := Encode("acme-docs", entries)
	assert.Equal(t, "# acme-docs\n.: readme.md\napi: auth.md ref.md\n", got)
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "# empty\n", Encode("empty", nil))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	entries := []scanner.DirEntry{{Dir: ".", Files: []string{"a.md"}}}

	dest, err := Write(filepath.Join(dir, "indexes"), "src", entries)
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "# src\n.: a.md\n", string(content))
}
