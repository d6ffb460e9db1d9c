// Package scanner lists the supported media files of a folder or file list.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions are the media types the date fixer handles.
var SupportedExtensions = []string{"jpg", "jpeg", "png", "heic", "mp4", "mov", "mkv", "avi"}

type Scanner struct {
	includeExt map[string]bool
	recursive  bool
}

func New(extensions []string, recursive bool) *Scanner {
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}
	return &Scanner{includeExt: extMap, recursive: recursive}
}

// Default returns a Scanner for SupportedExtensions.
func Default(recursive bool) *Scanner {
	return New(SupportedExtensions, recursive)
}

// Supported reports whether path has an included extension (case-insensitive).
func (s *Scanner) Supported(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return s.includeExt[ext]
}

// Scan returns the absolute paths of supported files under root, sorted
// lexicographically. Subfolders are only visited when recursive.
func (s *Scanner) Scan(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && !s.recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !s.Supported(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// ScanPaths accepts a mix of folders and files. Folders are scanned, files
// are kept when supported; the merged result is de-duplicated and sorted.
func (s *Scanner) ScanPaths(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := s.Scan(in)
			if err != nil {
				return nil, err
			}
			for _, p := range found {
				add(p)
			}
			continue
		}
		if !info.Mode().IsRegular() || !s.Supported(in) {
			continue
		}
		abs, err := filepath.Abs(in)
		if err != nil {
			return nil, err
		}
		add(abs)
	}

	sort.Strings(paths)
	return paths, nil
}
