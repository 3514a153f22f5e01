package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/events"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// SubscriptionService gates request creation behind plan quotas and runs the
// Gold upgrade approval workflow. Expiry is lazy: nobody sweeps the table, a
// stale Gold record is detected and downgraded on the next read that touches
// it.
type SubscriptionService struct {
	subs       repository.SubscriptionRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AssignmentConfig

	// now is swappable so expiry boundaries can be tested.
	now func() time.Time
}

// SubscriptionDependencies bundles collaborators for SubscriptionService.
type SubscriptionDependencies struct {
	Subscriptions repository.SubscriptionRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Config        config.AssignmentConfig
}

// NewSubscriptionService wires the gate.
func NewSubscriptionService(deps SubscriptionDependencies) *SubscriptionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		subs:       deps.Subscriptions,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        deps.Config,
		now:        time.Now,
	}
}

// Get returns the requester's subscription, provisioning a Free one on first
// touch and applying lazy expiry before returning.
func (s *SubscriptionService) Get(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.provision(ctx, userID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.refresh(ctx, sub)
}

func (s *SubscriptionService) provision(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub := &domain.Subscription{
		UserID:            userID,
		Plan:              domain.PlanFree,
		RemainingRequests: s.cfg.FreeQuota,
		Status:            domain.SubscriptionActive,
		LastReset:         s.now().UTC(),
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return sub, nil
}

// refresh applies time-based state changes: Gold expiry after one calendar
// month, and the Free monthly quota regrant.
func (s *SubscriptionService) refresh(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	now := s.now().UTC()
	changed := false

	if sub.Plan == domain.PlanGold && sub.SubscribedDate != nil &&
		sub.Status != domain.SubscriptionPending &&
		!now.Before(sub.SubscribedDate.AddDate(0, 1, 0)) {
		restored := s.cfg.FreeQuota
		if sub.PriorRemaining != nil {
			restored = *sub.PriorRemaining
		}
		sub.Plan = domain.PlanFree
		sub.Status = domain.SubscriptionExpired
		sub.RemainingRequests = restored
		sub.SubscribedDate = nil
		sub.PriorRemaining = nil
		sub.LastReset = now
		changed = true
		s.logger.Info("gold subscription expired", zap.String("user_id", sub.UserID))
	}

	if sub.Plan == domain.PlanFree && !now.Before(sub.LastReset.AddDate(0, 1, 0)) {
		sub.RemainingRequests = s.cfg.FreeQuota
		sub.LastReset = now
		if sub.Status == domain.SubscriptionExpired {
			sub.Status = domain.SubscriptionActive
		}
		changed = true
	}

	if changed {
		if err := s.subs.Upsert(ctx, sub); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	return sub, nil
}

// CanRequest decides whether the requester may open a new service request.
// Pending upgrades block entirely; a spent quota is a payment problem, not a
// conflict.
func (s *SubscriptionService) CanRequest(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.SubscriptionPending {
		return nil, apperrors.NewPendingApproval()
	}
	if sub.RemainingRequests <= 0 {
		return nil, apperrors.NewQuotaExceeded(string(sub.Plan))
	}
	return sub, nil
}

// Consume decrements the quota after a request was persisted. A failure here
// is logged, not surfaced; the request already exists.
func (s *SubscriptionService) Consume(ctx context.Context, userID string) {
	sub, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("quota decrement skipped", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if sub.RemainingRequests <= 0 {
		return
	}
	sub.RemainingRequests--
	if err := s.subs.Upsert(ctx, sub); err != nil {
		s.logger.Warn("quota decrement failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// RequestUpgrade snapshots the current balance and parks the record in
// Pending until an admin decides. The Gold quota is granted immediately but
// unusable while Pending.
func (s *SubscriptionService) RequestUpgrade(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.SubscriptionPending {
		return nil, apperrors.NewConflict("upgrade already pending", nil)
	}
	if sub.Plan == domain.PlanGold {
		return nil, apperrors.NewConflict("already on Gold", nil)
	}

	prior := sub.RemainingRequests
	now := s.now().UTC()
	sub.Plan = domain.PlanGold
	sub.Status = domain.SubscriptionPending
	sub.PriorRemaining = &prior
	sub.RemainingRequests = s.cfg.GoldQuota
	sub.SubscribedDate = &now

	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishUpgrade(ctx, userID, events.EventUpgradeRequested, events.UpgradeRequestedPayload{
		Plan:         domain.PlanGold,
		PriorBalance: prior,
		GrantedQuota: s.cfg.GoldQuota,
	})
	return sub, nil
}

// ApproveUpgrade activates a pending Gold upgrade. The subscription month
// starts at approval, not at the original ask.
func (s *SubscriptionService) ApproveUpgrade(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.pendingFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sub.Status = domain.SubscriptionApproved
	sub.SubscribedDate = &now
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishUpgrade(ctx, userID, events.EventUpgradeDecided, events.UpgradeDecidedPayload{
		Approved: true,
		Plan:     domain.PlanGold,
	})
	return sub, nil
}

// RejectUpgrade restores the exact pre-upgrade snapshot.
func (s *SubscriptionService) RejectUpgrade(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.pendingFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	restored := s.cfg.FreeQuota
	if sub.PriorRemaining != nil {
		restored = *sub.PriorRemaining
	}
	sub.Plan = domain.PlanFree
	sub.Status = domain.SubscriptionRejected
	sub.RemainingRequests = restored
	sub.SubscribedDate = nil
	sub.PriorRemaining = nil
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishUpgrade(ctx, userID, events.EventUpgradeDecided, events.UpgradeDecidedPayload{
		Approved: false,
		Plan:     domain.PlanFree,
	})
	return sub, nil
}

func (s *SubscriptionService) pendingFor(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("subscription", map[string]any{"user_id": userID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if sub.Status != domain.SubscriptionPending {
		return nil, apperrors.NewConflict("no pending upgrade for user", map[string]any{"user_id": userID})
	}
	return sub, nil
}

// ListPending returns upgrade requests awaiting an admin decision.
func (s *SubscriptionService) ListPending(ctx context.Context) ([]domain.Subscription, error) {
	subs, err := s.subs.ListByStatus(ctx, domain.SubscriptionPending)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return subs, nil
}

func (s *SubscriptionService) publishUpgrade(ctx context.Context, userID string, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: userID,
		Actor:     events.Actor{Role: domain.RoleRequester, UserID: userID},
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
}
