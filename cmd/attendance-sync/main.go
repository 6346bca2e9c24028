package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/config"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/syncrun"
	appHTTP "github.com/cmlabs-hris/attendance-sync/internal/handler/http"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-sync/internal/repository/device"
	attendanceService "github.com/cmlabs-hris/attendance-sync/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/service/rawlog"
	syncService "github.com/cmlabs-hris/attendance-sync/internal/service/syncrun"
	"github.com/go-chi/httplog/v3"
)

func main() {
	once := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-sync"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	syncCfg, err := config.LoadSyncConfig(cfg.Sync.ConfigPath)
	if err != nil {
		return err
	}
	loc, err := syncCfg.Location()
	if err != nil {
		return err
	}
	devices, err := syncCfg.DeviceList()
	if err != nil {
		return err
	}
	shifts, err := syncCfg.ShiftTable()
	if err != nil {
		return err
	}
	policy, err := syncCfg.Policy()
	if err != nil {
		return err
	}
	boundary, err := syncCfg.Boundary()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openSink(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer store.close()

	hub := sse.NewHub()
	rawLogSvc := rawlog.NewService(store.rawLogs, loc)
	attendanceSvc := attendanceService.NewAttendanceService(store.register, shifts)
	syncSvc := syncService.NewSyncService(
		device.NewZKSource(cfg.Sync.DeviceTimeout, loc),
		rawLogSvc,
		attendanceSvc,
		store.locker,
		hub,
		syncService.Options{
			Devices:     devices,
			Policy:      policy,
			DayBoundary: boundary,
			Concurrency: cfg.Sync.FetchConcurrency,
			Location:    loc,
		},
	)

	slog.Info("Attendance sync configured",
		"sink", cfg.Sync.SinkType,
		"devices", len(devices),
		"window_policy", policy.String(),
		"interval", cfg.Sync.Interval,
	)

	if once {
		result, err := syncSvc.Run(ctx, syncrun.TriggerStartup)
		slog.Info("Sync finished", "fetched", result.Fetched, "raw_appended", result.RawAppended,
			"records_inserted", result.RecordsInserted, "records_updated", result.RecordsUpdated)
		return err
	}

	scheduler := cron.NewScheduler(ctx)
	cron.NewSyncJobs(syncSvc, cfg.Sync.Interval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{Logger: logger},
		appHTTP.NewSyncHandler(syncSvc, hub),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewPunchHandler(rawLogSvc, loc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,

		// event streams end when the process is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
