package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// ReportHandler generates and lists liability documents.
type ReportHandler struct {
	reportService *service.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: time.Now}
}

// Documents lists the caller's liability documents for a year.
//
// Endpoint: GET /api/report?year=YYYY
// Response: 200 OK with array of model.LiabilityDocument
// Error: 400 Bad Request if year is invalid
func (h *ReportHandler) Documents(w http.ResponseWriter, r *http.Request) {
	year, err := request.ParseYear(r.URL.Query().Get("year"), h.now())
	if err != nil {
		respondServiceError(w, "invalid year", err)
		return
	}

	docs, err := h.reportService.ListDocuments(r.Context(), userID(r), year)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveLiabilities.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, docs)
}

// GetDocument returns the stored document of one scope.
//
// Endpoint: GET /api/report/{scope}?period=YYYY-MM
// Response: 200 OK with model.LiabilityDocument
// Error: 400 Bad Request if scope or period is invalid
// Error: 404 Not Found if no document exists
func (h *ReportHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	scope, period, err := h.scopeAndPeriod(r)
	if err != nil {
		respondServiceError(w, "invalid request", err)
		return
	}

	doc, err := h.reportService.GetDocument(r.Context(), userID(r), period, scope)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveLiabilities.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, doc)
}

// Generate recomputes the month and refreshes the scope's document. The
// period defaults to the previous calendar month. A failed render or store
// is reported in the outcome body, not as an HTTP error.
//
// Endpoint: POST /api/report/{scope}?period=YYYY-MM
// Response: 200 OK with model.Outcome, or model.ConsolidatedOutcome for scope "consolidated"
// Error: 400 Bad Request if scope or period is invalid
// Error: 409 Conflict if a recompute for the caller is already running
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	scope, period, err := h.scopeAndPeriod(r)
	if err != nil {
		respondServiceError(w, "invalid request", err)
		return
	}

	if scope == model.ScopeConsolidated {
		out, err := h.reportService.GenerateConsolidatedReport(r.Context(), userID(r), period)
		if err != nil {
			respondServiceError(w, apperrors.ErrFailedToGenerateReport.Error(), err)
			return
		}
		response.RespondJSON(w, http.StatusOK, out)
		return
	}

	out, err := h.reportService.GenerateScopeReport(r.Context(), userID(r), period, scope)
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToGenerateReport.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, out)
}

func (h *ReportHandler) scopeAndPeriod(r *http.Request) (model.ReportScope, model.Period, error) {
	scope, err := model.ParseReportScope(chi.URLParam(r, "scope"))
	if err != nil {
		return "", model.Period{}, err
	}
	period, err := request.ParsePeriodParam(r.URL.Query().Get("period"), model.PeriodOf(h.now()).Previous())
	if err != nil {
		return "", model.Period{}, err
	}
	return scope, period, nil
}
