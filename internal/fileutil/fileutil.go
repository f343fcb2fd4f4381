// Package fileutil provides file and directory helpers shared by the pipeline and CLI.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrPatternEmpty         = errors.New("temp dir pattern cannot be empty")
	ErrPatternPathTraversal = errors.New("temp dir pattern contains path separator or null byte")
	ErrNotDirectory         = errors.New("path exists and is not a directory")
)

// DirPerm is the permission used for directories the tool creates.
const DirPerm = 0o750

// ScopedTempDir creates a fresh directory under root (os.TempDir when empty)
// and returns a cleanup func that removes it with all of its contents.
func ScopedTempDir(root, pattern string) (dir string, cleanup func() error, err error) {
	if pattern == "" {
		return "", nil, ErrPatternEmpty
	}
	if strings.ContainsAny(pattern, "/\\\x00") {
		return "", nil, ErrPatternPathTraversal
	}

	dir, err = os.MkdirTemp(root, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	return dir, func() error { return os.RemoveAll(dir) }, nil
}

// EnsureDir creates dir and its parents. Concurrent calls for the same path are safe.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// NonEmptyFile returns true if path is a regular file with at least one byte.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// CheckWritable verifies that a file can be created inside dir.
func CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".doccrop-probe-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// RemoveQuietly deletes each path, ignoring errors. Used to undo partial outputs.
func RemoveQuietly(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(filepath.Clean(p))
		}
	}
}
