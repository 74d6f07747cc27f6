package model

import "time"

// User is the taxpayer profile attached to an identity-provider user ID.
// TaxID is held decrypted in memory and encrypted at rest.
type User struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	TaxID                string    `json:"taxId,omitempty"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Payer returns the identity printed on liability documents.
func (u User) Payer() Payer {
	return Payer{Name: u.Name, TaxID: u.TaxID}
}

// CanBeNotified reports whether the user consented and has somewhere to be reached.
func (u User) CanBeNotified() bool {
	return u.NotificationsEnabled && u.Email != ""
}
