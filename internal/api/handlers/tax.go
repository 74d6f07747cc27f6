package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/export"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// TaxHandler serves monthly results and operator recomputes.
type TaxHandler struct {
	taxService *service.TaxService
	now        func() time.Time
}

// NewTaxHandler creates a new TaxHandler.
func NewTaxHandler(taxService *service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService, now: time.Now}
}

// RecomputedMonth summarizes one recomputed month.
type RecomputedMonth struct {
	Period string                                `json:"period"`
	TaxDue decimal.Decimal                       `json:"taxDue"`
	Scopes map[model.ReportScope]decimal.Decimal `json:"scopes"`
}

// Results returns stored monthly category results for a year, or for a
// single month when month is given.
//
// Endpoint: GET /api/tax/results?year=YYYY&month=M
// Response: 200 OK with array of model.MonthlyResult
// Error: 400 Bad Request if year or month is invalid
func (h *TaxHandler) Results(w http.ResponseWriter, r *http.Request) {
	from, to, err := yearOrMonth(r, h.now())
	if err != nil {
		respondServiceError(w, "invalid period", err)
		return
	}

	results, err := h.taxService.ListResults(r.Context(), userID(r), from, to)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveResults.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, results)
}

// Recompute rebuilds the caller's months from..to in order, so carryforward
// chains broken by a gap month are restored. Both bounds default as in
// request.ParsePeriodRange.
//
// Endpoint: POST /api/tax/recompute?from=YYYY-MM&to=YYYY-MM
// Response: 200 OK with array of RecomputedMonth
// Error: 400 Bad Request if the range is invalid or too long
// Error: 409 Conflict if a recompute for the caller is already running
func (h *TaxHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := request.ParsePeriodRange(q.Get("from"), q.Get("to"), h.now())
	if err != nil {
		respondServiceError(w, "invalid period", err)
		return
	}

	computations, err := h.taxService.RecomputeRange(r.Context(), userID(r), from, to)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRecompute.Error(), err)
		return
	}

	months := make([]RecomputedMonth, 0, len(computations))
	for _, m := range computations {
		scopes := make(map[model.ReportScope]decimal.Decimal, len(model.PrimaryScopes()))
		total := decimal.Zero
		for _, scope := range model.PrimaryScopes() {
			due := m.ScopeTaxDue(scope)
			scopes[scope] = due
			total = total.Add(due)
		}
		months = append(months, RecomputedMonth{Period: m.Period.String(), TaxDue: total, Scopes: scopes})
	}
	response.RespondJSON(w, http.StatusOK, months)
}

// Export streams the caller's monthly results for a year as an XLSX workbook.
//
// Endpoint: GET /api/tax/results/export?year=YYYY
// Response: 200 OK with an XLSX attachment
// Error: 400 Bad Request if year is invalid
func (h *TaxHandler) Export(w http.ResponseWriter, r *http.Request) {
	year, err := request.ParseYear(r.URL.Query().Get("year"), h.now())
	if err != nil {
		respondServiceError(w, "invalid year", err)
		return
	}

	from := model.Period{Year: year, Month: time.January}
	to := model.Period{Year: year, Month: time.December}
	results, err := h.taxService.ListResults(r.Context(), userID(r), from, to)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveResults.Error(), err)
		return
	}

	// Buffered so a failed write can still become a JSON error.
	var buf bytes.Buffer
	if err := export.WriteResults(&buf, year, results); err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToExport.Error(), err.Error())
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="capital-gains-%d.xlsx"`, year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func yearOrMonth(r *http.Request, now time.Time) (model.Period, model.Period, error) {
	q := r.URL.Query()
	year, err := request.ParseYear(q.Get("year"), now)
	if err != nil {
		return model.Period{}, model.Period{}, err
	}
	if m := q.Get("month"); m != "" {
		month, err := strconv.Atoi(m)
		if err != nil {
			return model.Period{}, model.Period{}, fmt.Errorf("%w: invalid month %q", apperrors.ErrInvalidPeriod, m)
		}
		p, err := model.NewPeriod(year, time.Month(month))
		if err != nil {
			return model.Period{}, model.Period{}, err
		}
		return p, p, nil
	}
	return model.Period{Year: year, Month: time.January}, model.Period{Year: year, Month: time.December}, nil
}
