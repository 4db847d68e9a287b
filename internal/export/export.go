// Package export writes a dashboard bundle to disk as JSON or as an XLSX
// workbook with one sheet per view.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ecommerce-dashboard/internal/services"
)

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"

	timestampLayout = "20060102_150405"
)

var Formats = []string{FormatJSON, FormatXLSX}

// TimestampedFilename returns <baseDir>/<name>_<timestamp>.<ext>.
func TimestampedFilename(baseDir, name, ext string, at time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, at.Format(timestampLayout), ext))
}

func create(filename string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func ExportJSON(filename string, data any) (err error) {
	file, err := create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()
	return WriteJSON(file, data)
}

func ExportXLSX(filename string, bundle services.Bundle) (err error) {
	file, err := create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()
	return WriteXLSX(file, bundle)
}

// Export writes the bundle in the given format under dir and returns the
// file it created.
func Export(dir, format string, bundle services.Bundle) (string, error) {
	filename := TimestampedFilename(dir, "dashboard", format, bundle.GeneratedAt)
	switch format {
	case FormatJSON:
		return filename, ExportJSON(filename, bundle)
	case FormatXLSX:
		return filename, ExportXLSX(filename, bundle)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}
