// SPDX-License-Identifier: MPL-2.0

// Package fsscan provides the filesystem queries used by area discovery:
// listing sub-folders, finding the first existing candidate file and globbing
// files below a folder.
//
// All queries run against a billy.Filesystem so the same code handles the
// real OS and in-memory trees. Paths are absolute and slash separated.
package fsscan

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/invowk/areas/pkg/nspath"

	"github.com/bmatcuk/doublestar/v4"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-billy/v5/osfs"
)

// hiddenPrefix marks folders that are never treated as areas.
const hiddenPrefix = "."

// ErrInvalidPattern is returned when a glob pattern cannot be parsed.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// Scanner answers filesystem questions for the area builder and derivers.
type Scanner struct {
	fs billy.Filesystem
}

// New returns a Scanner over fs. A nil fs uses the host filesystem.
func New(fs billy.Filesystem) *Scanner {
	if fs == nil {
		fs = osfs.New("/")
	}
	return &Scanner{fs: fs}
}

// FS returns the underlying filesystem.
func (s *Scanner) FS() billy.Filesystem {
	return s.fs
}

// ListSubfolders returns the names of the immediate child folders of path,
// sorted, skipping hidden entries. A missing folder yields no names and no
// error.
func (s *Scanner) ListSubfolders(path string) ([]string, error) {
	if !s.IsDir(path) {
		return nil, nil
	}

	infos, err := s.fs.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list folders in %s: %w", path, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() || strings.HasPrefix(info.Name(), hiddenPrefix) {
			continue
		}
		names = append(names, info.Name())
	}
	slices.Sort(names)

	return names, nil
}

// FindFirstExisting returns the absolute path of the first candidate that
// exists in folder. Candidate order is precedence order.
func (s *Scanner) FindFirstExisting(folder string, candidates []string) (string, bool) {
	for _, name := range candidates {
		p := nspath.Join(folder, name)
		if s.Exists(p) {
			return p, true
		}
	}
	return "", false
}

// Exists reports whether path exists.
func (s *Scanner) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a folder.
func (s *Scanner) IsDir(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && info.IsDir()
}

// Stat returns file information for path.
func (s *Scanner) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// ReadFile returns the contents of path.
func (s *Scanner) ReadFile(path string) ([]byte, error) {
	return util.ReadFile(s.fs, path)
}

// Glob returns every file below root whose slash-separated path relative to
// root matches one of patterns (doublestar syntax). Folders never match. The
// result holds absolute paths in walk order; a missing root yields nothing.
func (s *Scanner) Glob(root string, patterns ...string) ([]string, error) {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pat)
		}
	}
	if !s.IsDir(root) {
		return nil, nil
	}

	var matches []string
	walkErr := util.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		path = nspath.ToSlash(path)
		rel := nspath.Relative(root, path)
		for _, pat := range patterns {
			if ok, _ := doublestar.Match(pat, rel); ok {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("glob %s: %w", root, walkErr)
	}

	return matches, nil
}

// WalkFiles calls fn for every file below root, following symlinked folders
// when follow is set. Paths handed to fn are absolute and slash separated.
func (s *Scanner) WalkFiles(root string, follow bool, fn func(path string) error) error {
	if !s.IsDir(root) {
		return nil
	}
	return s.walk(root, follow, fn)
}

func (s *Scanner) walk(dir string, follow bool, fn func(path string) error) error {
	infos, err := s.fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	slices.SortFunc(infos, func(a, b os.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })

	for _, info := range infos {
		p := nspath.ToSlash(s.fs.Join(dir, info.Name()))

		isDir := info.IsDir()
		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := s.fs.Stat(p)
			if statErr != nil {
				continue
			}
			isDir = target.IsDir()
			if isDir && !follow {
				continue
			}
		}

		if isDir {
			if err := s.walk(p, follow, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}
