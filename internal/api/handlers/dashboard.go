package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// DashboardHandler serves the read-only overview.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, now: time.Now}
}

// Summary totals stored results over a period range and values open positions.
// A transaction write only recomputes the months it touches, so results of
// later months may lag until a report or POST /api/tax/recompute covers them.
//
// Endpoint: GET /api/dashboard?start=YYYY-MM&end=YYYY-MM
// Response: 200 OK with model.DashboardSummary
// Error: 400 Bad Request if the range is invalid
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := request.ParsePeriodRange(q.Get("start"), q.Get("end"), h.now())
	if err != nil {
		respondServiceError(w, "invalid period", err)
		return
	}

	summary, err := h.dashboardService.Summary(r.Context(), userID(r), from, to)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToGetDashboard.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, summary)
}
