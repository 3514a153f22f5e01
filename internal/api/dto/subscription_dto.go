package dto

import "time"

// SubscriptionResponse is the public shape of a plan record.
type SubscriptionResponse struct {
	UserID            string     `json:"user_id"`
	Plan              string     `json:"plan"`
	RemainingRequests int        `json:"remaining_requests"`
	Status            string     `json:"status"`
	SubscribedDate    *time.Time `json:"subscribed_date,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
