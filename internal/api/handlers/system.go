package handlers

import (
	"net/http"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks database connectivity.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with HealthResponse
// Error: 503 Service Unavailable if the database cannot be reached
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		response.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	response.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}

// Version returns the application version, schema version, enabled features
// and whether a migration is pending.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with model.VersionInfo
// Error: 500 Internal Server Error if the schema version cannot be read
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	version, err := h.systemService.CheckVersion()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetVersionInfo.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, version)
}
