package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sync"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/storage"
)

// CSVTable keeps a table in a single CSV file. Every write rewrites the file.
type CSVTable struct {
	store storage.FileStorage
	path  string
	mu    sync.Mutex
}

func NewCSVTable(store storage.FileStorage, name string) *CSVTable {
	return &CSVTable{store: store, path: name + ".csv"}
}

// load returns every row including the header; a missing file is an empty table.
func (t *CSVTable) load(ctx context.Context) ([][]string, error) {
	rc, err := t.store.Download(ctx, t.path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", t.path, err)
	}
	return rows, nil
}

func (t *CSVTable) save(ctx context.Context, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode %s: %w", t.path, err)
	}
	if _, err := t.store.Upload(ctx, &buf, t.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", t.path, err)
	}
	return nil
}

func (t *CSVTable) EnsureHeader(ctx context.Context, header []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 && headerMatches(rows[0], header) {
		return nil
	}
	if len(rows) == 0 {
		rows = [][]string{header}
	} else {
		rows[0] = header
	}
	return t.save(ctx, rows)
}

func (t *CSVTable) Rows(ctx context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) < firstDataRow {
		return nil, nil
	}
	return rows[firstDataRow-1:], nil
}

func (t *CSVTable) Append(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, err := t.load(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return fmt.Errorf("%s has no header row", t.path)
	}
	return t.save(ctx, append(existing, rows...))
}

func (t *CSVTable) Update(ctx context.Context, updates []RowUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if u.Row < firstDataRow || u.Row > len(rows) {
			return fmt.Errorf("row %d out of range in %s", u.Row, t.path)
		}
		rows[u.Row-1] = u.Values
	}
	return t.save(ctx, rows)
}
