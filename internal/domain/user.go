package domain

import "time"

// Role distinguishes the three account kinds sharing the users collection.
type Role string

const (
	RoleRequester Role = "user"
	RoleProvider  Role = "service_provider"
	RoleAdmin     Role = "admin"
)

// Availability is a provider's self-declared readiness to take work.
type Availability string

const (
	AvailabilityAvailable   Availability = "Available"
	AvailabilityUnavailable Availability = "Unavailable"
)

// GovIDStatus tracks admin moderation of a provider's uploaded ID document.
type GovIDStatus string

const (
	GovIDPending  GovIDStatus = "Pending"
	GovIDApproved GovIDStatus = "Approved"
	GovIDRejected GovIDStatus = "Rejected"
)

// User is the polymorphic account record. Provider-specific fields stay zero
// for requesters and admins.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	Phone        string
	Address      string
	SubDistrict  string
	District     string
	City         string
	State        string

	// Provider fields.
	Service        string
	Availability   Availability
	Rating         float64
	CompletedJobs  int
	ActiveRequests int
	SignupDate     time.Time
	GovIDURL       string
	GovIDStatus    GovIDStatus
	Website        string
	Latitude       *float64
	Longitude      *float64
	Source         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsProvider reports whether the account offers services.
func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}

// LocationHierarchy returns the user's location values from finest to
// coarsest, skipping unset levels.
func (u *User) LocationHierarchy() []string {
	levels := []string{u.SubDistrict, u.District, u.City, u.State}
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
