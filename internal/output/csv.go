// Package output writes generated posts to a CSV file.
package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

// Header is the single column written as the first CSV row.
const Header = "generated_tweet"

// Rows wraps each generated item in an OutputRow, keeping order.
func Rows(items []string) []models.OutputRow {
	rows := make([]models.OutputRow, len(items))
	for i, item := range items {
		rows[i] = models.OutputRow{Text: item}
	}
	return rows
}

// CSVWriter writes rows to a CSV file.
type CSVWriter struct {
	perm os.FileMode
}

// NewCSVWriter creates a CSVWriter that creates files with mode 0644.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{perm: 0o644}
}

// Write writes a header row followed by one row per item to path. The file
// is written to a temporary file in the same directory and renamed into
// place, so on failure an existing file at path is left untouched and no
// partial file remains. Failures wrap models.ErrOutputWrite.
func (w *CSVWriter) Write(path string, rows []models.OutputRow) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating output directory %q: %w", models.ErrOutputWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tweetgen-*.csv")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %q: %w", models.ErrOutputWrite, dir, err)
	}
	tmpPath := tmp.Name()

	if err := writeRows(tmp, rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %q: %w", models.ErrOutputWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %q: %w", models.ErrOutputWrite, tmpPath, err)
	}
	if err := os.Chmod(tmpPath, w.perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: setting permissions on %q: %w", models.ErrOutputWrite, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing %q: %w", models.ErrOutputWrite, path, err)
	}

	slog.Info("wrote output file", "path", path, "rows", len(rows))
	return nil
}

func writeRows(f *os.File, rows []models.OutputRow) error {
	bw := bufio.NewWriter(f)
	cw := csv.NewWriter(bw)

	if err := cw.Write([]string{Header}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Text}); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Sync()
}
