package tabular

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/sheets"
)

const newSheetRows = 40000

// SheetTable is one tab of a spreadsheet.
type SheetTable struct {
	client *sheets.Client
	title  string
	width  int
}

func NewSheetTable(client *sheets.Client, title string, width int) *SheetTable {
	return &SheetTable{client: client, title: title, width: width}
}

// columnName converts a 1-based column index to its A1 letters.
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

func (t *SheetTable) quotedTitle() string {
	return "'" + strings.ReplaceAll(t.title, "'", "''") + "'"
}

func (t *SheetTable) rowRange(from, to int) string {
	last := columnName(t.width)
	if to == 0 {
		return fmt.Sprintf("%s!A%d:%s", t.quotedTitle(), from, last)
	}
	return fmt.Sprintf("%s!A%d:%s%d", t.quotedTitle(), from, last, to)
}

func (t *SheetTable) EnsureHeader(ctx context.Context, header []string) error {
	titles, err := t.client.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sheets: %w", err)
	}
	if !slices.Contains(titles, t.title) {
		if err := t.client.AddSheet(ctx, t.title, newSheetRows, len(header)); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", t.title, err)
		}
	} else {
		current, err := t.client.Values(ctx, t.rowRange(1, 1))
		if err != nil {
			return fmt.Errorf("failed to read header of %q: %w", t.title, err)
		}
		if len(current) > 0 && headerMatches(current[0], header) {
			return nil
		}
	}
	if err := t.client.Update(ctx, t.rowRange(1, 1), [][]string{header}); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", t.title, err)
	}
	return nil
}

func (t *SheetTable) Rows(ctx context.Context) ([][]string, error) {
	rows, err := t.client.Values(ctx, t.rowRange(firstDataRow, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", t.title, err)
	}
	return rows, nil
}

func (t *SheetTable) Append(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := t.client.Append(ctx, t.rowRange(1, 0), rows); err != nil {
		return fmt.Errorf("failed to append to %q: %w", t.title, err)
	}
	return nil
}

func (t *SheetTable) Update(ctx context.Context, updates []RowUpdate) error {
	ranges := make([]sheets.RangeUpdate, 0, len(updates))
	for _, u := range updates {
		ranges = append(ranges, sheets.RangeUpdate{
			Range: t.rowRange(u.Row, u.Row),
			Rows:  [][]string{u.Values},
		})
	}
	if err := t.client.BatchUpdate(ctx, ranges); err != nil {
		return fmt.Errorf("failed to update %q: %w", t.title, err)
	}
	return nil
}
