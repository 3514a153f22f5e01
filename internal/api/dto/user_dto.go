package dto

import "time"

// UserSummary is the public shape of an account.
type UserSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	SubDistrict string `json:"sub_district,omitempty"`
	District    string `json:"district,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`

	Service        string   `json:"service,omitempty"`
	Availability   string   `json:"availability,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	CompletedJobs  int      `json:"completed_jobs,omitempty"`
	ActiveRequests int      `json:"active_requests,omitempty"`
	GovIDStatus    string   `json:"gov_id_status,omitempty"`
	Website        string   `json:"website,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Source         string   `json:"source,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UpdateProfileRequest carries partial profile edits; absent fields stay
// unchanged.
type UpdateProfileRequest struct {
	Username    *string `json:"username"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	SubDistrict *string `json:"sub_district"`
	District    *string `json:"district"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Service     *string `json:"service"`
	Website     *string `json:"website"`
}

// SetAvailabilityRequest toggles provider availability.
type SetAvailabilityRequest struct {
	Availability string `json:"availability"`
}

// GovIDDecisionRequest carries the admin verdict on a provider document.
type GovIDDecisionRequest struct {
	Approve bool `json:"approve"`
}

// CatalogEntryResponse is one admin-curated service name.
type CatalogEntryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCatalogEntryRequest adds a service name to the catalog.
type CreateCatalogEntryRequest struct {
	Name string `json:"name"`
}
