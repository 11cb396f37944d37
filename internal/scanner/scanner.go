package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are used when NewScanner gets none
var DefaultExtensions = []string{".eml"}

// Scanner scans directories for message files
type Scanner struct {
	rootPath   string
	extensions map[string]bool
}

// NewScanner creates a new scanner for the given root path. Extensions are
// matched case-insensitively and may be given with or without the dot.
func NewScanner(rootPath string, extensions ...string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}

	return &Scanner{
		rootPath:   rootPath,
		extensions: exts,
	}
}

// Root returns the root path for resolving relative paths
func (s *Scanner) Root() string {
	return s.rootPath
}

// Resolve turns a path returned by Scan back into a filesystem path
func (s *Scanner) Resolve(relPath string) string {
	return filepath.Join(s.rootPath, filepath.FromSlash(relPath))
}

func (s *Scanner) matches(name string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}

// Scan recursively scans for message files and returns paths relative to rootPath,
// slash-separated and sorted, so they stay stable across machines.
func (s *Scanner) Scan() ([]string, error) {
	var files []string

	absRoot, err := filepath.Abs(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute root path: %w", err)
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if d.IsDir() || !s.matches(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		files = append(files, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// CountFiles counts matching files without collecting their paths
func (s *Scanner) CountFiles() (int, error) {
	count := 0

	err := filepath.WalkDir(s.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && s.matches(d.Name()) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	return count, nil
}
