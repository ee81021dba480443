package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// discoverFiles expands args into the text files to process. Directories are
// filtered by include and exclude patterns; explicit files only by exclude.
// A file reached twice is listed once, at its first position.
func discoverFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	if len(includePatterns) == 0 {
		includePatterns = DefaultIncludePatterns
	}
	if err := checkPatterns(includePatterns, excludePatterns); err != nil {
		return nil, err
	}

	var files []string
	seen := map[string]bool{}
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			files = append(files, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			if !matchesAnyPattern(arg, excludePatterns) {
				add(arg)
			}
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == arg {
					return nil
				}
				if !recursive || strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if shouldIncludeFile(path, includePatterns, excludePatterns) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}

	return files, nil
}

func checkPatterns(sets ...[]string) error {
	for _, set := range sets {
		for _, p := range set {
			if _, err := filepath.Match(p, ""); err != nil {
				return fmt.Errorf("invalid pattern %q: %w", p, err)
			}
		}
	}
	return nil
}

// shouldIncludeFile applies exclude patterns first, then include patterns.
// No include patterns means everything not excluded.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	return len(includePatterns) == 0 || matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks the base name of path against patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
