package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const fileExt = ".csv"

type rawTable struct {
	name    string
	columns map[string]int
	rows    [][]string
}

// column resolves a header case-insensitively.
func (t *rawTable) column(name string) (int, error) {
	if idx, ok := t.columns[normalizeHeader(name)]; ok {
		return idx, nil
	}
	return -1, missingColumn(t.name, name)
}

func (t *rawTable) hasColumn(name string) bool {
	_, ok := t.columns[normalizeHeader(name)]
	return ok
}

// line maps a row index to its 1-based file line, header included.
func (t *rawTable) line(rowIdx int) int {
	return rowIdx + 2
}

func (t *rawTable) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func (l *Loader) path(table string) string {
	return filepath.Join(l.dir, table+fileExt)
}

func (l *Loader) readTable(ctx context.Context, table string) (*rawTable, error) {
	path := l.path(table)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingFileError{Table: table, Path: path, Err: err}
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &MalformedRowError{Table: table, Err: fmt.Errorf("empty file")}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", table, err)
	}

	raw := &rawTable{
		name:    table,
		columns: make(map[string]int, len(header)),
	}
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := raw.columns[key]; !dup {
			raw.columns[key] = i
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
		raw.rows = append(raw.rows, record)
	}

	return raw, nil
}

func parseCount(table, column string, line int, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		// Counts exported through a float column come out as "12.0".
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, &MalformedRowError{Table: table, Column: column, Line: line, Value: value, Err: err}
		}
		n = int(f)
	}
	if n < 0 {
		return 0, &MalformedRowError{Table: table, Column: column, Line: line, Value: value, Err: fmt.Errorf("negative count")}
	}
	return n, nil
}

func parseFloat(table, column string, line int, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &MalformedRowError{Table: table, Column: column, Line: line, Value: value, Err: err}
	}
	return f, nil
}
