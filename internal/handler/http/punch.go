package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/handler/http/response"
)

// PunchLister reads the raw punch log.
type PunchLister interface {
	List(ctx context.Context, filter punch.RawLogFilter) ([]punch.Event, error)
}

type PunchHandler interface {
	List(w http.ResponseWriter, r *http.Request)
}

type punchHandlerImpl struct {
	rawLogs PunchLister
	loc     *time.Location
}

func NewPunchHandler(rawLogs PunchLister, loc *time.Location) PunchHandler {
	return &punchHandlerImpl{rawLogs: rawLogs, loc: loc}
}

// List implements PunchHandler.
func (h *punchHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := punch.ListPunchesRequest{
		EmployeeID: q.Get("employee_id"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
	}
	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil {
			response.BadRequest(w, "limit must be a number", nil)
			return
		}
		req.Limit = limit
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	events, err := h.rawLogs.List(r.Context(), req.Filter(h.loc))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := punch.NewListPunchesResponse(events)
	response.SuccessWithMeta(w, result.Punches, &response.Meta{
		Limit:      req.Limit,
		TotalItems: result.TotalCount,
	})
}
