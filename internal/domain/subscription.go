package domain

import "time"

// Plan enumerates subscription tiers.
type Plan string

const (
	PlanFree Plan = "Free"
	PlanGold Plan = "Gold"
)

// SubscriptionStatus tracks the upgrade approval workflow.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "Active"
	SubscriptionPending  SubscriptionStatus = "Pending"
	SubscriptionApproved SubscriptionStatus = "Approved"
	SubscriptionRejected SubscriptionStatus = "Rejected"
	SubscriptionExpired  SubscriptionStatus = "Expired"
)

// Subscription is the per-requester plan and quota record. PriorRemaining
// snapshots the pre-upgrade balance so a rejection or expiry can restore it
// exactly instead of resetting to a hardcoded default.
type Subscription struct {
	UserID            string
	Plan              Plan
	RemainingRequests int
	Status            SubscriptionStatus
	SubscribedDate    *time.Time
	PriorRemaining    *int
	LastReset         time.Time
	UpdatedAt         time.Time
}
