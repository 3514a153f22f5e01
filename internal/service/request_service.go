package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/events"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// Assigner is the slice of the assignment engine the request lifecycle
// needs. Satisfied by *AssignmentService.
type Assigner interface {
	Assign(ctx context.Context, requesterID, serviceType string) (string, error)
}

// RequestService owns the service request lifecycle: creation with the
// subscription gate and assignment attempt, status transitions, feedback,
// and admin interventions.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	subs       *SubscriptionService
	assigner   Assigner
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RequestDependencies bundles collaborators for RequestService.
type RequestDependencies struct {
	Requests      repository.RequestRepository
	Users         repository.UserRepository
	Subscriptions *SubscriptionService
	Assigner      Assigner
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewRequestService wires the lifecycle service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:   deps.Requests,
		users:      deps.Users,
		subs:       deps.Subscriptions,
		assigner:   deps.Assigner,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create opens a service request. The subscription gate runs first; then the
// assignment engine tries to find a provider. When no provider exists the
// request is still persisted as Pending so an admin can reassign later, and
// the quota is not consumed for it.
func (s *RequestService) Create(ctx context.Context, requesterID, serviceName string) (*domain.ServiceRequest, error) {
	if serviceName == "" {
		return nil, apperrors.NewValidationError("service name is required", nil)
	}
	if _, err := s.subs.CanRequest(ctx, requesterID); err != nil {
		return nil, err
	}

	req := &domain.ServiceRequest{
		ServiceName:   serviceName,
		RequestedBy:   requesterID,
		Status:        domain.RequestStatusPending,
		PaymentStatus: "unpaid",
	}

	providerID, err := s.assigner.Assign(ctx, requesterID, serviceName)
	switch {
	case err == nil:
		req.AssignedTo = &providerID
		req.Status = domain.RequestStatusAssigned
	case apperrors.IsCode(err, "NO_PROVIDER_AVAILABLE"):
		// fall through with a Pending record
	default:
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventRequestCreated, req.ID, requesterID, domain.RoleRequester,
		events.RequestCreatedPayload{ServiceName: serviceName, Status: req.Status})

	if req.Status == domain.RequestStatusAssigned {
		s.subs.Consume(ctx, requesterID)
		s.bumpCounters(ctx, providerID, 1, 0)
		s.publish(ctx, events.EventRequestAssigned, req.ID, requesterID, domain.RoleRequester,
			events.RequestAssignedPayload{ProviderID: providerID, ServiceName: serviceName})
	}
	return req, nil
}

// Cancel lets the requester abandon their own request. An assigned provider
// gets its load counter released.
func (s *RequestService) Cancel(ctx context.Context, requesterID, requestID string) (*domain.ServiceRequest, error) {
	req, err := s.ownedBy(ctx, requestID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, domain.RequestStatusCancelled, domain.ActorRequester, requesterID, domain.RoleRequester); err != nil {
		return nil, err
	}
	if req.AssignedTo != nil {
		s.bumpCounters(ctx, *req.AssignedTo, -1, 0)
	}
	return req, nil
}

// Start moves an assigned request into progress; providers only.
func (s *RequestService) Start(ctx context.Context, providerID, requestID string) (*domain.ServiceRequest, error) {
	req, err := s.assignedTo(ctx, requestID, providerID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, domain.RequestStatusInProgress, domain.ActorProvider, providerID, domain.RoleProvider); err != nil {
		return nil, err
	}
	return req, nil
}

// Complete marks the work done and shifts one unit of provider load from
// active to completed.
func (s *RequestService) Complete(ctx context.Context, providerID, requestID string) (*domain.ServiceRequest, error) {
	req, err := s.assignedTo(ctx, requestID, providerID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, domain.RequestStatusCompleted, domain.ActorProvider, providerID, domain.RoleProvider); err != nil {
		return nil, err
	}
	s.bumpCounters(ctx, providerID, -1, 1)
	return req, nil
}

// SubmitFeedback records a 1-5 rating and optional text on a completed
// request, folds the rating into the provider's running average, and closes
// the request.
func (s *RequestService) SubmitFeedback(ctx context.Context, requesterID, requestID string, rating int, feedback string) (*domain.ServiceRequest, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	req, err := s.ownedBy(ctx, requestID, requesterID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusCompleted {
		return nil, apperrors.NewConflict("feedback requires a completed request", map[string]any{"status": req.Status})
	}

	req.Rating = &rating
	req.Feedback = feedback
	if err := s.transition(ctx, req, domain.RequestStatusClosed, domain.ActorRequester, requesterID, domain.RoleRequester); err != nil {
		return nil, err
	}

	if req.AssignedTo != nil {
		s.foldProviderRating(ctx, *req.AssignedTo, rating)
	}
	return req, nil
}

// foldProviderRating updates the running average using the provider's
// completed job count as the sample size. Advisory; a failure leaves the
// request closed.
func (s *RequestService) foldProviderRating(ctx context.Context, providerID string, rating int) {
	provider, err := s.users.GetByID(ctx, providerID)
	if err != nil {
		s.logger.Warn("rating fold skipped", zap.String("provider_id", providerID), zap.Error(err))
		return
	}
	n := provider.CompletedJobs
	if n < 1 {
		n = 1
	}
	provider.Rating = (provider.Rating*float64(n-1) + float64(rating)) / float64(n)
	if err := s.users.Update(ctx, provider); err != nil {
		s.logger.Warn("rating fold failed", zap.String("provider_id", providerID), zap.Error(err))
	}
}

// GetByID returns a single request with ownership enforcement for non-admin
// callers.
func (s *RequestService) GetByID(ctx context.Context, requestID string, viewer *domain.User) (*domain.ServiceRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if viewer.Role == domain.RoleAdmin {
		return req, nil
	}
	if req.RequestedBy == viewer.ID {
		return req, nil
	}
	if req.AssignedTo != nil && *req.AssignedTo == viewer.ID {
		return req, nil
	}
	return nil, apperrors.NewForbidden("not your request")
}

// ListForRequester returns the requester's own history.
func (s *RequestService) ListForRequester(ctx context.Context, requesterID string, limit, offset int) ([]domain.ServiceRequest, error) {
	return s.list(ctx, repository.RequestFilter{RequestedBy: &requesterID, Limit: limit, Offset: offset})
}

// ListForProvider returns work assigned to the provider.
func (s *RequestService) ListForProvider(ctx context.Context, providerID string, limit, offset int) ([]domain.ServiceRequest, error) {
	return s.list(ctx, repository.RequestFilter{AssignedTo: &providerID, Limit: limit, Offset: offset})
}

// ListAll is the admin view, optionally filtered by status.
func (s *RequestService) ListAll(ctx context.Context, statuses []domain.RequestStatus, limit, offset int) ([]domain.ServiceRequest, error) {
	return s.list(ctx, repository.RequestFilter{Statuses: statuses, Limit: limit, Offset: offset})
}

// Reassign reruns the assignment engine for a stuck request; admins only.
// The previous provider, if any, gets its load released.
func (s *RequestService) Reassign(ctx context.Context, adminID, requestID string) (*domain.ServiceRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusPending && req.Status != domain.RequestStatusAssigned {
		return nil, apperrors.NewConflict("request is not reassignable", map[string]any{"status": req.Status})
	}

	providerID, err := s.assigner.Assign(ctx, req.RequestedBy, req.ServiceName)
	if err != nil {
		return nil, err
	}

	previous := req.AssignedTo
	req.AssignedTo = &providerID
	req.Status = domain.RequestStatusAssigned
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if previous != nil && *previous != providerID {
		s.bumpCounters(ctx, *previous, -1, 0)
		s.bumpCounters(ctx, providerID, 1, 0)
	} else if previous == nil {
		s.bumpCounters(ctx, providerID, 1, 0)
	}

	s.publish(ctx, events.EventRequestAssigned, req.ID, adminID, domain.RoleAdmin,
		events.RequestAssignedPayload{ProviderID: providerID, ServiceName: req.ServiceName})
	return req, nil
}

// ForceStatus is the admin escape hatch; it bypasses the transition map but
// still rejects unknown states.
func (s *RequestService) ForceStatus(ctx context.Context, adminID, requestID string, status domain.RequestStatus) (*domain.ServiceRequest, error) {
	if !domain.ValidRequestStatus(status) {
		return nil, apperrors.NewValidationError("unknown request status", map[string]any{"status": status})
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	old := req.Status
	req.Status = status
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventRequestStatusChanged, req.ID, adminID, domain.RoleAdmin,
		events.RequestStatusChangedPayload{OldStatus: old, NewStatus: status})
	return req, nil
}

func (s *RequestService) list(ctx context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	result, err := s.requests.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return result, nil
}

func (s *RequestService) load(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return req, nil
}

func (s *RequestService) ownedBy(ctx context.Context, requestID, requesterID string) (*domain.ServiceRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequestedBy != requesterID {
		return nil, apperrors.NewForbidden("not your request")
	}
	return req, nil
}

func (s *RequestService) assignedTo(ctx context.Context, requestID, providerID string) (*domain.ServiceRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.AssignedTo == nil || *req.AssignedTo != providerID {
		return nil, apperrors.NewForbidden("request is not assigned to you")
	}
	return req, nil
}

func (s *RequestService) transition(ctx context.Context, req *domain.ServiceRequest, to domain.RequestStatus, actor domain.RequestActor, actorID string, role domain.Role) error {
	if err := domain.CanTransition(req.Status, to, actor); err != nil {
		return apperrors.NewConflict(err.Error(), map[string]any{"from": req.Status, "to": to})
	}
	old := req.Status
	req.Status = to
	if err := s.requests.Update(ctx, req); err != nil {
		req.Status = old
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.EventRequestStatusChanged, req.ID, actorID, role,
		events.RequestStatusChangedPayload{OldStatus: old, NewStatus: to})
	return nil
}

// bumpCounters is advisory; the request row is the source of truth and a
// failed counter update only skews ranking slightly until the next change.
func (s *RequestService) bumpCounters(ctx context.Context, providerID string, activeDelta, completedDelta int) {
	if err := s.users.AdjustCounters(ctx, providerID, activeDelta, completedDelta); err != nil {
		s.logger.Warn("provider counter update failed",
			zap.String("provider_id", providerID), zap.Error(err))
	}
}

func (s *RequestService) publish(ctx context.Context, eventType events.EventType, subjectID, actorID string, role domain.Role, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     events.Actor{Role: role, UserID: actorID},
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
