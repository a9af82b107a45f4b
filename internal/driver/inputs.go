package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"dxfaudit/internal/snapshot"
)

// ExpandInputs turns CLI arguments into a list of snapshot files. An argument
// is a file, a directory (searched recursively for snapshot extensions) or a
// glob; "**" matches any number of directories. Files named explicitly are
// kept even with an unknown extension so the error surfaces per file.
// Duplicates are dropped, first occurrence wins.
func ExpandInputs(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if containsGlob(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("glob %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match pattern: %s", arg)
			}
			slices.Sort(matches)
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		files, err := listSnapshots(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

// listSnapshots возвращает отсортированный список снимков в директории
func listSnapshots(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isSnapshot(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func isSnapshot(path string) bool {
	return slices.Contains(snapshot.Extensions, strings.ToLower(filepath.Ext(path)))
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
