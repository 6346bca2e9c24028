package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/config"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/sheets"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-sync/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-sync/internal/repository/tabular"
	syncService "github.com/cmlabs-hris/attendance-sync/internal/service/syncrun"
)

// sink is the pair of stores a run writes to.
type sink struct {
	rawLogs  punch.RawLogRepository
	register attendance.RecordRepository
	// locker is nil unless the store is shared between processes
	locker syncService.RunLocker
	close  func()
}

func openSink(ctx context.Context, cfg *config.Config, loc *time.Location) (*sink, error) {
	switch cfg.Sync.SinkType {
	case config.SinkPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &sink{
			rawLogs:  postgresql.NewRawPunchRepository(db, loc),
			register: postgresql.NewAttendanceRecordRepository(db, loc),
			locker:   postgresql.NewAdvisoryLock(db, postgresql.SyncLockKey),
			close:    db.Close,
		}, nil

	case config.SinkSheets:
		credentials, err := os.ReadFile(cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account credentials: %w", err)
		}
		client, err := sheets.NewServiceAccountClient(ctx, credentials, cfg.Sheets.SpreadsheetID)
		if err != nil {
			return nil, err
		}
		raw := tabular.NewSheetTable(client, cfg.Sheets.RawTab, len(tabular.RawLogHeader))
		register := tabular.NewSheetTable(client, cfg.Sheets.RegisterTab, len(tabular.RegisterHeader))
		return tabularSink(ctx, raw, register, loc)

	case config.SinkCSV:
		store, err := storage.NewLocalStorage(cfg.CSV.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize csv directory: %w", err)
		}
		raw := tabular.NewCSVTable(store, "raw_logs")
		register := tabular.NewCSVTable(store, "register")
		return tabularSink(ctx, raw, register, loc)
	}
	return nil, fmt.Errorf("unsupported sink type: %s", cfg.Sync.SinkType)
}

func tabularSink(ctx context.Context, raw, register tabular.Table, loc *time.Location) (*sink, error) {
	if err := tabular.Bootstrap(ctx, raw, register); err != nil {
		return nil, err
	}
	return &sink{
		rawLogs:  tabular.NewRawLogRepository(raw, loc),
		register: tabular.NewRecordRepository(register, loc),
		close:    func() {},
	}, nil
}
