package request

// UpdateProfileRequest replaces the caller's taxpayer profile.
type UpdateProfileRequest struct {
	Name                 string `json:"name" validate:"required,max=200"`
	Email                string `json:"email" validate:"omitempty,email,max=254"`
	TaxID                string `json:"taxId" validate:"omitempty,max=32"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}
