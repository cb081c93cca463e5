// Package selector enumerates the files of a directory tree that carry one
// of a set of extensions, pruning excluded directories before descending.
//
// It is used twice per run: once over the template folder and once per
// template over the target tree. Walks are lazy and restartable; every
// call to Seq starts a fresh walk so writes made between calls are seen.
package selector

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
)

// Selector walks directory trees and yields matching files.
type Selector struct {
	extensions map[string]struct{}
	exclude    map[string]struct{}
	logger     logging.Logger
}

// New creates a selector. Extensions may be given with or without the
// leading dot and are matched case-sensitively. Excluded directories are
// matched on their exact normalized absolute path.
func New(extensions, excludeDirs []string, logger logging.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Selector{
		extensions: make(map[string]struct{}, len(extensions)),
		exclude:    make(map[string]struct{}, len(excludeDirs)),
		logger:     logger.WithComponent("selector"),
	}
	for _, ext := range extensions {
		if ext = NormalizeExtension(ext); ext != "" {
			s.extensions[ext] = struct{}{}
		}
	}
	for _, dir := range excludeDirs {
		if dir == "" {
			continue
		}
		s.exclude[normalize(dir)] = struct{}{}
	}
	return s
}

// NormalizeExtension trims spaces and ensures a leading dot. An empty
// input stays empty.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Extensions returns the configured extensions, sorted.
func (s *Selector) Extensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Excluded reports whether dir is one of the excluded directories.
func (s *Selector) Excluded(dir string) bool {
	_, ok := s.exclude[normalize(dir)]
	return ok
}

// Matches reports whether path carries one of the configured extensions.
func (s *Selector) Matches(path string) bool {
	_, ok := s.extensions[filepath.Ext(path)]
	return ok
}

// Seq returns a lazy walk of root. Unreadable directories below root are
// logged and skipped. An unreadable root ends the sequence; use Select to
// observe that as an error.
func (s *Selector) Seq(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = s.walk(root, yield)
	}
}

// Select walks root and returns the matching files sorted by path.
func (s *Selector) Select(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.InputNotFound(root, err)
	}
	if !info.IsDir() {
		return nil, errors.InputNotFound(root, fs.ErrInvalid)
	}

	var files []string
	if err := s.walk(root, func(path string) bool {
		files = append(files, path)
		return true
	}); err != nil {
		return nil, errors.InputNotFound(root, err)
	}
	slices.Sort(files)
	return files, nil
}

func (s *Selector) walk(root string, yield func(string) bool) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Warn(context.Background(), err, "Skipping unreadable path", "path", path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && s.Excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !s.Matches(path) {
			return nil
		}

		if !yield(path) {
			return filepath.SkipAll
		}
		return nil
	})
}

// normalize returns the cleaned absolute form of path, falling back to
// the cleaned path when the working directory is unavailable.
func normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Within reports whether path lies inside dir (or is dir itself), after
// normalization.
func Within(path, dir string) bool {
	p, d := normalize(path), normalize(dir)
	if p == d {
		return true
	}
	if !strings.HasSuffix(d, string(filepath.Separator)) {
		d += string(filepath.Separator)
	}
	return strings.HasPrefix(p, d)
}
