package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// AssetHandler serves the caller's positions.
type AssetHandler struct {
	positionService *service.PositionService
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(positionService *service.PositionService) *AssetHandler {
	return &AssetHandler{positionService: positionService}
}

// Assets lists every asset the caller has traded with its current quantity
// and average cost. Negative quantities are returned as stored.
//
// Endpoint: GET /api/asset
// Response: 200 OK with array of model.Asset
func (h *AssetHandler) Assets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.positionService.ListAssets(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveAssets.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, assets)
}

// GetAsset returns one position.
//
// Endpoint: GET /api/asset/{uuid}
// Response: 200 OK with model.Asset
// Error: 404 Not Found if the asset does not belong to the caller
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.positionService.GetAsset(r.Context(), userID(r), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, apperrors.ErrFailedToRetrieveAssets.Error(), err)
		return
	}
	response.RespondJSON(w, http.StatusOK, asset)
}
