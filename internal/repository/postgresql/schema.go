package postgresql

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the raw punch and attendance tables when missing.
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// wallClock re-reads a TIMESTAMP or DATE value, which pgx returns in UTC, as the same
// wall-clock reading in loc.
func wallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
