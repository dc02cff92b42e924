package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Document is a fully rendered PDF held in memory
type Document struct {
	Name string
	data []byte
}

// Bytes returns the PDF content
func (d *Document) Bytes() []byte {
	return d.data
}

// WriteTo writes the PDF to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.Copy(w, bytes.NewReader(d.data))
	return n, err
}

// SaveFile writes the PDF into dir under its Name and returns the path.
// Content goes to a temporary file first, so a failed write never leaves a
// partial report behind.
func (d *Document) SaveFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+d.Name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(d.data); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close report: %w", err)
	}

	path := filepath.Join(dir, d.Name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}
	return path, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// FileName returns prefix_<name>_<YYYY-MM-DD>.pdf with name reduced to
// letters, digits and dashes
func FileName(prefix, name string, date time.Time) string {
	clean := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if clean == "" {
		clean = "untitled"
	}
	return fmt.Sprintf("%s_%s_%s.pdf", prefix, clean, date.Format("2006-01-02"))
}
