package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DiscoverRules select which files under a source directory are VOB documents.
type DiscoverRules struct {
	Prefix          string   // case-insensitive file name prefix
	Extension       string   // without the dot, case-insensitive
	ExcludeContains []string // case-insensitive substrings of the full path
}

// DefaultRules matches "VOB Form - *.pdf" outside any "insurance cards" folder.
func DefaultRules() DiscoverRules {
	return DiscoverRules{
		Prefix:          "VOB Form -",
		Extension:       "pdf",
		ExcludeContains: []string{"insurance cards"},
	}
}

func (r DiscoverRules) excluded(path string) bool {
	lower := strings.ToLower(path)
	for _, s := range r.ExcludeContains {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Match reports whether path is a document to ingest.
func (r DiscoverRules) Match(path string) bool {
	name := filepath.Base(path)
	if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(r.Prefix)) {
		return false
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if r.Extension != "" && !strings.EqualFold(ext, strings.TrimPrefix(r.Extension, ".")) {
		return false
	}
	return !r.excluded(path)
}

// Discover walks root recursively and returns matching regular files in
// lexical order. Unreadable subdirectories are skipped; an unreadable root is
// an error.
func Discover(root string, rules DiscoverRules) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && rules.excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && rules.Match(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
