package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RemoveTree deletes one edition directory and prunes the date directories it leaves empty.
// It never fails: every problem is returned as a warning for the caller to log.
// Removing a directory that is already gone yields no warnings.
func (l *Layout) RemoveTree(dir string) []error {
	dir = filepath.Clean(dir)
	if !l.isEditionDir(dir) {
		return []error{fmt.Errorf("refusing to remove %q: %w", dir, ErrOutsideRoot)}
	}

	var warnings []error
	warn := func(err error) {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			warnings = append(warnings, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.pruneParents(dir)
			return nil
		}
		return []error{fmt.Errorf("read edition directory: %w", err)}
	}

	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		switch {
		case entry.Name() == ImagesDirName && entry.IsDir():
			images, err := os.ReadDir(p)
			warn(err)
			for _, img := range images {
				if img.IsDir() {
					warn(os.RemoveAll(filepath.Join(p, img.Name())))
					continue
				}
				warn(os.Remove(filepath.Join(p, img.Name())))
			}
			warn(os.Remove(p))
		case entry.IsDir():
			warn(os.RemoveAll(p))
		default:
			warn(os.Remove(p))
		}
	}
	warn(os.Remove(dir))

	l.pruneParents(dir)
	return warnings
}

// pruneParents removes the day, month and year directories above dir while they are empty
func (l *Layout) pruneParents(dir string) {
	parent := filepath.Dir(dir)
	for i := 0; i < 3 && l.within(parent); i++ {
		// os.Remove refuses non-empty directories, which is the stop condition
		if err := os.Remove(parent); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return
		}
		parent = filepath.Dir(parent)
	}
}

// isEditionDir reports whether dir sits exactly at <root>/<YYYY>/<MM>/<DD>/<edition>
func (l *Layout) isEditionDir(dir string) bool {
	if !l.within(dir) {
		return false
	}
	rel, err := filepath.Rel(l.root, dir)
	if err != nil {
		return false
	}
	return len(strings.Split(filepath.ToSlash(rel), "/")) == 4
}
