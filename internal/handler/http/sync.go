package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/syncrun"
	"github.com/cmlabs-hris/attendance-sync/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/sse"
	"github.com/goccy/go-json"
)

type SyncHandler interface {
	Trigger(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Events(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	syncService syncrun.SyncService
	hub         *sse.Hub
	keepalive   time.Duration
}

func NewSyncHandler(syncService syncrun.SyncService, hub *sse.Hub) SyncHandler {
	return &syncHandlerImpl{
		syncService: syncService,
		hub:         hub,
		keepalive:   30 * time.Second,
	}
}

// Trigger implements SyncHandler. With ?wait=false the run continues in the
// background and progress is reported on the events stream.
func (h *syncHandlerImpl) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "false" {
		if h.syncService.Status().Running {
			response.HandleError(w, syncrun.ErrRunInProgress)
			return
		}

		go func() {
			ctx := context.WithoutCancel(r.Context())
			if _, err := h.syncService.Run(ctx, syncrun.TriggerManual); err != nil && !errors.Is(err, syncrun.ErrRunInProgress) {
				slog.Error("Background sync run failed", "error", err)
			}
		}()
		response.Accepted(w, "Sync run started", nil)
		return
	}

	result, err := h.syncService.Run(r.Context(), syncrun.TriggerManual)
	if err != nil && result.RunID == "" {
		response.HandleError(w, err)
		return
	}
	if err != nil {
		slog.Warn("Sync run finished with errors", "run_id", result.RunID, "error", err)
		response.SuccessWithMessage(w, "Sync run finished with errors", result)
		return
	}

	response.SuccessWithMessage(w, "Sync run finished", result)
}

// Status implements SyncHandler.
func (h *syncHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.syncService.Status())
}

// Events implements SyncHandler.
func (h *syncHandlerImpl) Events(w http.ResponseWriter, r *http.Request) {
	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(syncrun.Topic)
	defer cleanup()

	// Send initial connection event with the current status
	if status, err := json.Marshal(h.syncService.Status()); err == nil {
		fmt.Fprintf(w, "event: connected\ndata: %s\n\n", status)
	}
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
