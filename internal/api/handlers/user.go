package handlers

import (
	"net/http"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/validation"
)

// UserHandler serves the caller's taxpayer profile.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the caller's profile, creating an empty one on first access.
//
// Endpoint: GET /api/user/profile
// Response: 200 OK with model.User
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetProfile(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, "failed to retrieve profile", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, user)
}

// UpdateProfile replaces the caller's profile.
//
// Endpoint: PUT /api/user/profile
// Request Body: UpdateProfileRequest (name, email, taxId, notificationsEnabled)
// Response: 200 OK with model.User
// Error: 400 Bad Request if validation fails
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateProfileRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateUpdateProfile(req); err != nil {
		respondServiceError(w, "validation failed", err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID(r), service.ProfileUpdate{
		Name:                 req.Name,
		Email:                req.Email,
		TaxID:                req.TaxID,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		respondServiceError(w, "failed to update profile", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, user)
}
