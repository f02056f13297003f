package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// FileHelper provides file operation utilities
type FileHelper struct {
	followSymlinks bool
}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// NewFileHelperWithSymlinks creates a FileHelper that also matches symlinked files
func NewFileHelperWithSymlinks(follow bool) *FileHelper {
	return &FileHelper{followSymlinks: follow}
}

// SplitPatterns splits a comma separated pattern list
func SplitPatterns(pattern string) []string {
	var patterns []string
	for _, p := range strings.Split(pattern, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, filepath.ToSlash(p))
		}
	}
	return patterns
}

// CollectReportFiles returns the files below root that match pattern, a comma
// separated list of globs such as "**/*.log, target/pmd.xml". Paths matching an
// exclude pattern are skipped. The result is sorted.
func (h *FileHelper) CollectReportFiles(root, pattern string, excludePatterns []string) ([]string, error) {
	patterns := SplitPatterns(pattern)
	if len(patterns) == 0 {
		return nil, nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "scan", Path: root, Err: fs.ErrInvalid}
	}

	include := ignore.CompileIgnoreLines(patterns...)
	exclude := ignore.CompileIgnoreLines(excludePatterns...)

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			// Skip excluded directories early
			if exclude.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !h.followSymlinks {
				return nil
			}
			target, statErr := os.Stat(path)
			if statErr != nil || !target.Mode().IsRegular() {
				return nil
			}
		}

		if include.MatchesPath(rel) && !exclude.MatchesPath(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FileExists checks if a file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// EnsureDir creates dir and its parents when missing
func (h *FileHelper) EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
