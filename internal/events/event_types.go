package events

import (
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestAssigned      EventType = "request_assigned"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventProviderOnboarded    EventType = "provider_onboarded"
	EventUpgradeRequested     EventType = "subscription_upgrade_requested"
	EventUpgradeDecided       EventType = "subscription_upgrade_decided"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role   domain.Role `json:"role"`
	UserID string      `json:"user_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	ServiceName string               `json:"service_name"`
	Status      domain.RequestStatus `json:"status"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	ProviderID  string `json:"provider_id"`
	ServiceName string `json:"service_name"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// ProviderOnboardedPayload payload for externally discovered providers.
type ProviderOnboardedPayload struct {
	ProviderID  string `json:"provider_id"`
	Source      string `json:"source"`
	ServiceName string `json:"service_name"`
	Location    string `json:"location"`
}

// UpgradeRequestedPayload payload.
type UpgradeRequestedPayload struct {
	Plan         domain.Plan `json:"plan"`
	PriorBalance int         `json:"prior_balance"`
	GrantedQuota int         `json:"granted_quota"`
}

// UpgradeDecidedPayload payload.
type UpgradeDecidedPayload struct {
	Approved bool        `json:"approved"`
	Plan     domain.Plan `json:"plan"`
}
