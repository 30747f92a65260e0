package records

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// CSVBackend keeps the table in a comma-separated file with a header row of
// field names.
type CSVBackend struct {
	Path string
}

// NewCSVBackend returns a backend for the file at path.
func NewCSVBackend(path string) *CSVBackend {
	return &CSVBackend{Path: path}
}

// Load reads the file. A missing or empty file is an empty table. Columns are
// matched by header name; columns missing from the file read as "".
func (b *CSVBackend) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewTable(), nil
		}
		return nil, err
	}
	return decodeCSV(data)
}

// Save rewrites the whole file in AllFields column order.
func (b *CSVBackend) Save(ctx context.Context, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeCSV(t)
	if err != nil {
		return err
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, b.Path)
}

// Ping checks that the directory holding the file exists.
func (b *CSVBackend) Ping(ctx context.Context) error {
	dir := filepath.Dir(b.Path)
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func decodeCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, bomUTF8)
	if len(bytes.TrimSpace(data)) == 0 {
		return NewTable(), nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	// Row width is reconciled against the header below.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	// columns[i] is the field stored in CSV column i, or -1 when unknown.
	columns := make([]Field, len(header))
	known := 0
	for i, h := range header {
		f, ok := FieldByName(h)
		if !ok {
			columns[i] = -1
			continue
		}
		columns[i] = f
		known++
	}
	if known == 0 {
		return nil, errors.New("header row has no known columns")
	}

	t := NewTable()
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		var rec Record
		for i, v := range row {
			if i >= len(columns) || columns[i] < 0 {
				continue
			}
			rec.Set(columns[i], v)
		}
		t.Append(rec)
	}
	return t, nil
}

func encodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(AllFields))
	for i, f := range AllFields {
		header[i] = f.String()
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, rec := range t.rows {
		if err := w.Write(rec.Values()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
