// Package csvout writes export results as CSV files.
package csvout

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

const dirPerm = 0o755

// Writer writes files under one directory. Each file is written to a
// temporary sibling and renamed into place, so readers never see a partial
// export.
type Writer struct {
	dir string
}

// New creates a Writer rooted at dir.
func New(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write stores header and rows as name and returns the final path.
func (w *Writer) Write(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, dirPerm); err != nil {
		return "", fmt.Errorf("create %s: %w", w.dir, err)
	}
	path := filepath.Join(w.dir, name)

	f, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}
