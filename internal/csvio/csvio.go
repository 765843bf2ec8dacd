// Package csvio reads the tabular inputs of a run and writes its tables.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcristia/CGA/pkg/apperr"
)

// Read parses all records from r. Fields are trimmed and fully blank lines
// skipped. Records may have differing lengths.
func Read(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(strings.TrimPrefix(rec[i], "\ufeff"))
			if rec[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, rec)
		}
	}
	return rows, nil
}

// ReadFile reads a CSV input file. Missing or malformed files are
// configuration errors.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Config(path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, apperr.Config(path, fmt.Errorf("parsing CSV: %w", err))
	}
	return rows, nil
}

// Pairs reads a headerless two-column file into an ordered key/value list.
func Pairs(path string) ([][2]string, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make([][2]string, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 || row[0] == "" {
			return nil, apperr.Config(path, fmt.Errorf("line %d: expected 2 columns, got %d", i+1, len(row)))
		}
		out = append(out, [2]string{row[0], row[1]})
	}
	return out, nil
}

// Write encodes header and rows as CSV.
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write CSV rows: %w", err)
	}
	return nil
}

// WriteFile writes a CSV file, creating its directory.
func WriteFile(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, header, rows); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
