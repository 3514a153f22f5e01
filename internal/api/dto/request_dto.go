package dto

import "time"

// CreateServiceRequest opens a new service request.
type CreateServiceRequest struct {
	ServiceName string `json:"service_name"`
}

// ServiceRequestResponse is the public shape of a request.
type ServiceRequestResponse struct {
	ID            string    `json:"id"`
	ServiceName   string    `json:"service_name"`
	RequestedBy   string    `json:"requested_by"`
	AssignedTo    *string   `json:"assigned_to,omitempty"`
	Status        string    `json:"status"`
	Feedback      string    `json:"feedback,omitempty"`
	Rating        *int      `json:"rating,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FeedbackRequest closes a completed request with a rating.
type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// ForceStatusRequest is the admin status override.
type ForceStatusRequest struct {
	Status string `json:"status"`
}
