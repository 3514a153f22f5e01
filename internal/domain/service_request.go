package domain

import (
	"fmt"
	"time"
)

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "Pending"
	RequestStatusAssigned   RequestStatus = "Assigned"
	RequestStatusInProgress RequestStatus = "InProgress"
	RequestStatusCompleted  RequestStatus = "Completed"
	RequestStatusCancelled  RequestStatus = "Cancelled"
	RequestStatusClosed     RequestStatus = "Closed"
	RequestStatusRejected   RequestStatus = "Rejected"
)

// ValidRequestStatus reports whether s is a known lifecycle state.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestStatusPending, RequestStatusAssigned, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusCancelled, RequestStatusClosed,
		RequestStatusRejected:
		return true
	}
	return false
}

// ServiceRequest is the aggregate for a requester's service order.
type ServiceRequest struct {
	ID            string
	ServiceName   string
	RequestedBy   string
	AssignedTo    *string
	Status        RequestStatus
	Feedback      string
	Rating        *int
	PaymentStatus string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RequestActor names who performs a transition. Admins bypass the transition
// map entirely (force changes are an escape hatch, not part of the machine).
type RequestActor string

const (
	ActorRequester RequestActor = "requester"
	ActorProvider  RequestActor = "provider"
	ActorEngine    RequestActor = "engine"
)

type requestTransition struct {
	From  RequestStatus
	To    RequestStatus
	Actor RequestActor
}

var requestTransitions = []requestTransition{
	{From: RequestStatusPending, To: RequestStatusAssigned, Actor: ActorEngine},
	{From: RequestStatusPending, To: RequestStatusCancelled, Actor: ActorRequester},
	{From: RequestStatusAssigned, To: RequestStatusInProgress, Actor: ActorProvider},
	{From: RequestStatusAssigned, To: RequestStatusCompleted, Actor: ActorProvider},
	{From: RequestStatusAssigned, To: RequestStatusCancelled, Actor: ActorRequester},
	{From: RequestStatusInProgress, To: RequestStatusCompleted, Actor: ActorProvider},
	{From: RequestStatusInProgress, To: RequestStatusCancelled, Actor: ActorRequester},
	{From: RequestStatusCompleted, To: RequestStatusClosed, Actor: ActorRequester},
}

var requestTransitionSet = func() map[requestTransition]bool {
	m := make(map[requestTransition]bool, len(requestTransitions))
	for _, t := range requestTransitions {
		m[t] = true
	}
	return m
}()

// CanTransition validates a status change for a non-admin actor.
func CanTransition(from, to RequestStatus, actor RequestActor) error {
	if requestTransitionSet[requestTransition{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition %s -> %s for %s", from, to, actor)
}
