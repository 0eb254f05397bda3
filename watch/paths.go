package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand resolves file arguments to concrete, absolute model file paths.
// Arguments may be plain paths or doublestar globs; directories and
// duplicates are dropped. A plain path that does not exist is an error.
func Expand(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
		return nil
	}

	for _, arg := range args {
		if !containsGlob(arg) {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", arg, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("resolve %q: is a directory", arg)
			}
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func containsGlob(s string) bool {
	for _, c := range s {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
