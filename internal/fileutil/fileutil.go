// Package fileutil holds small filesystem helpers shared by the workflows.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
)

// LockFileName is created in a working directory while a run owns it.
const LockFileName = ".autotagger.lock"

// ErrLocked reports that another process already holds the directory lock.
var ErrLocked = errors.New("directory is in use by another autotagger run")

// ListByExtension returns the regular files in dir whose extension matches ext
// (case-insensitive, with or without the leading dot), sorted by name.
func ListByExtension(dir, ext string) ([]string, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return nil, errors.New("extension is empty")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	matches := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) != ext {
			continue
		}
		matches = append(matches, filepath.Join(dir, name))
	}
	sort.Strings(matches)
	return matches, nil
}

// FindSibling returns the file next to stem (a path without extension) whose
// extension matches ext case-insensitively. An exact-case match wins; the
// error wraps os.ErrNotExist when no such file exists.
func FindSibling(stem, ext string) (string, error) {
	ext = "." + strings.TrimPrefix(strings.TrimSpace(ext), ".")
	dir, name := filepath.Split(stem)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir %s: %w", dir, err)
	}
	found := ""
	for _, entry := range entries {
		candidate := entry.Name()
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(candidate), ext) {
			continue
		}
		if strings.TrimSuffix(candidate, filepath.Ext(candidate)) != name {
			continue
		}
		if candidate == name+ext {
			return filepath.Join(dir, candidate), nil
		}
		if found == "" {
			found = filepath.Join(dir, candidate)
		}
	}
	if found == "" {
		return "", fmt.Errorf("%s%s: %w", stem, ext, os.ErrNotExist)
	}
	return found, nil
}

// ReplaceExt swaps the extension of path for ext (given with its dot).
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DirLock is an exclusive advisory lock on a working directory.
type DirLock struct {
	lock *flock.Flock
}

// LockDir takes the working-directory lock without blocking. It returns
// ErrLocked when another run holds it.
func LockDir(dir string) (*DirLock, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &DirLock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *DirLock) Path() string {
	if l == nil || l.lock == nil {
		return ""
	}
	return l.lock.Path()
}

// Unlock releases the lock and removes the lock file.
func (l *DirLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return err
	}
	return RemoveIfExists(l.lock.Path())
}
