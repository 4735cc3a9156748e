package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/semdocs/source/htmlmd"
)

// PreprocessHTML converts every HTML file under the given directories into
// a sibling markdown file, removing the original. Static HTML dumps vary
// too much for generic chrome heuristics, so chrome handling is left to the
// configured selector. Returns the number of converted files.
func PreprocessHTML(dirs []string, selector string) (int, error) {
	converter := htmlmd.NewConverter()
	converted := 0

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}

			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".html" && ext != ".htm" {
				return nil
			}

			body, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			result, err := converter.Convert(body, htmlmd.Options{
				Selector:     selector,
				RewriteLinks: true,
			})
			if err != nil {
				return fmt.Errorf("convert %s: %w", path, err)
			}

			dest := path[:len(path)-len(ext)] + ".md"
			if err := os.WriteFile(dest, []byte(result.Markdown+"\n"), 0o644); err != nil {
				return err
			}
			if err := os.Remove(path); err != nil {
				return err
			}
			converted++
			return nil
		})
		if err != nil {
			return converted, err
		}
	}
	return converted, nil
}
