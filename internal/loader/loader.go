package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ragqa/internal/domain"
)

// Extension is the file suffix the loader picks up, compared case-insensitively.
const Extension = ".txt"

// LoadDocs reads every plain-text file directly inside dir.
// Files are returned in lexicographic name order; dotfiles and subdirectories are skipped.
// An empty directory yields an empty slice and no error.
func LoadDocs(dir string) ([]domain.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirNotFound, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	docs := make([]domain.Document, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(strings.ToLower(name), Extension) {
			continue
		}
		path := filepath.Join(dir, name)
		if !e.Type().IsRegular() {
			// follow symlinks the way a glob would
			st, err := os.Stat(path)
			if err != nil || !st.Mode().IsRegular() {
				continue
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, path)
		}
		docs = append(docs, domain.Document{Path: path, Content: string(data)})
	}
	return docs, nil
}

// Contents returns document texts in load order.
func Contents(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}

// Paths returns document identifiers in load order, index-aligned with Contents.
func Paths(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out
}
