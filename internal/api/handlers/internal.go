package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// InternalHandler serves operator endpoints behind the API key.
type InternalHandler struct {
	sweepService *service.SweepService
	now          func() time.Time
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(sweepService *service.SweepService) *InternalHandler {
	return &InternalHandler{sweepService: sweepService, now: time.Now}
}

// Sweep runs the monthly batch for every opted-in user. The period defaults
// to the previous calendar month. Per-user failures are part of the summary.
//
// Endpoint: POST /api/internal/sweep?period=YYYY-MM
// Response: 200 OK with model.SweepSummary
// Error: 400 Bad Request if period is invalid
// Error: 500 Internal Server Error if the user list cannot be loaded
func (h *InternalHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	period, err := request.ParsePeriodParam(r.URL.Query().Get("period"), model.PeriodOf(h.now()).Previous())
	if err != nil {
		respondServiceError(w, "invalid period", err)
		return
	}

	summary, err := h.sweepService.Run(r.Context(), period)
	if err != nil {
		respondServiceError(w, "sweep failed", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, summary)
}
