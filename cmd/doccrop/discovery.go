package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	doccrop "github.com/alnah/go-doccrop"
)

// Sentinel errors for input discovery.
var (
	ErrNoInput   = errors.New("no input specified")
	ErrNoFiles   = errors.New("no .pdf, .docx or .doc files found")
	ErrOutputDir = errors.New("cannot create output directory")
)

// inputFile is one document to queue. Root is the directory argument it
// was found under, empty for explicit files.
type inputFile struct {
	Path string
	Root string
}

// outputDir mirrors the file's position under Root inside dir, so files
// with the same name in different subdirectories do not collide.
func (f inputFile) outputDir(dir string) string {
	if dir == "" || f.Root == "" {
		return dir
	}
	rel, err := filepath.Rel(f.Root, filepath.Dir(f.Path))
	if err != nil || rel == "." {
		return dir
	}
	return filepath.Join(dir, rel)
}

// discoverInputs expands arguments into the files to queue.
// Directories are walked recursively for supported documents; explicit
// file arguments are kept whatever their extension so the run reports
// them as unsupported. Duplicates are dropped, first occurrence wins.
func discoverInputs(args []string) ([]inputFile, error) {
	if len(args) == 0 {
		return nil, ErrNoInput
	}

	seen := make(map[string]bool)
	var files []inputFile
	add := func(p, root string) {
		key := filepath.Clean(p)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, inputFile{Path: p, Root: root})
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		if !info.IsDir() {
			add(arg, "")
			continue
		}
		found, err := walkDocuments(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f, arg)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, strings.Join(args, ", "))
	}
	return files, nil
}

// walkDocuments returns supported documents under dir in lexical order.
// Word lock files (~$name.docx) are skipped.
func walkDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if _, err := doccrop.DetectFormat(path); err == nil {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
