package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/syncrun"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Sync domain errors
	case errors.Is(err, syncrun.ErrRunInProgress):
		Conflict(w, "A sync run is already in progress")
	case errors.Is(err, syncrun.ErrNoDevices):
		ServiceUnavailable(w, "No devices configured")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordIndexUnavailable):
		ServiceUnavailable(w, "Attendance register is unavailable")

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(w, "Request was cancelled")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
