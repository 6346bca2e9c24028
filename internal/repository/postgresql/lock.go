package postgresql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/database"
)

// SyncLockKey is the advisory lock id held for the duration of a sync run.
const SyncLockKey int64 = 0x5a4b53594e43 // "ZKSYNC"

// AdvisoryLock serializes sync runs across processes sharing one database.
type AdvisoryLock struct {
	db  *database.DB
	key int64
}

func NewAdvisoryLock(db *database.DB, key int64) *AdvisoryLock {
	return &AdvisoryLock{db: db, key: key}
}

// TryLock takes the session lock on a dedicated connection without waiting. When ok is
// true the caller must call release.
func (l *AdvisoryLock) TryLock(ctx context.Context) (release func(), ok bool, err error) {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for lock: %w", err)
	}

	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	release = func() {
		if _, err := conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
			slog.Error("failed to release advisory lock", "key", l.key, "error", err)
		}
		conn.Release()
	}
	return release, true, nil
}
