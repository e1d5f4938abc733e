// Package output handles file naming and writing for exported capsules.
// Filenames are derived from the capsule title (e.g., understanding_goroutines.md).
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes exported capsules to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	// Ensure the output directory exists.
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Write saves rendered capsule data under a filename derived from the title.
// It returns the full path of the written file.
func (w *Writer) Write(title string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, Filename(title)+ext)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// Filename converts a capsule title into a safe flat filename.
// Example: "Understanding Goroutines!" → understanding_goroutines
func Filename(title string) string {
	name := sanitize(strings.ToLower(strings.TrimSpace(title)))
	// Collapse runs of underscores left by punctuation.
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_")
	if name == "" {
		name = "capsule"
	}
	return name
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
