// Package batch discovers ESP source files under a directory tree and
// drives them through the compile+resolve pipeline with a bounded worker
// pool, the batch driver's entry point.
package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var skipDirs = []string{".git", "vendor", "node_modules", ".espc"}

// Discover walks root and returns every regular file matching includeGlobs
// (doublestar patterns, relative to root; a nil/empty list defaults to
// "**/*.esp") that does not also match any excludeGlobs pattern, skipping
// common non-source directories and hidden directories along the way.
func Discover(root string, includeGlobs, excludeGlobs []string) ([]string, error) {
	if len(includeGlobs) == 0 {
		includeGlobs = []string{"**/*.esp"}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(rel, includeGlobs) {
			return nil
		}
		if matchesAny(rel, excludeGlobs) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func shouldSkipDir(name string) bool {
	if slices.Contains(skipDirs, name) {
		return true
	}
	return len(name) > 1 && name[0] == '.'
}

func matchesAny(rel string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// FilterBySize drops any file larger than maxBytes (0 means unbounded),
// mirroring File Intake's size cap but applied before a file is
// even opened, so a batch run never attempts to read a file File Intake
// would reject anyway.
func FilterBySize(files []string, maxBytes int64) []string {
	if maxBytes <= 0 {
		return files
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxBytes {
			continue
		}
		out = append(out, f)
	}
	return out
}
