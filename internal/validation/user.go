package validation

import "github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"

// ValidateUpdateProfile validates a profile update request.
func ValidateUpdateProfile(req request.UpdateProfileRequest) error {
	errors := make(map[string]string)
	if err := validateStruct(req, errors); err != nil {
		return err
	}
	if req.NotificationsEnabled && req.Email == "" {
		errors["email"] = "email is required to enable notifications"
	}
	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
