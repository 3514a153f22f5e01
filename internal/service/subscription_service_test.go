package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

func newSubscriptionService(repo *fakeSubscriptionRepo, dispatcher *recordingDispatcher) *SubscriptionService {
	return NewSubscriptionService(SubscriptionDependencies{
		Subscriptions: repo,
		Dispatcher:    dispatcher,
		Config:        assignmentConfig(),
	})
}

func TestGetProvisionsFreeSubscription(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newSubscriptionService(repo, &recordingDispatcher{})

	sub, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sub.Plan != domain.PlanFree {
		t.Errorf("plan = %s, want Free", sub.Plan)
	}
	if sub.Status != domain.SubscriptionActive {
		t.Errorf("status = %s, want Active", sub.Status)
	}
	if sub.RemainingRequests != 1 {
		t.Errorf("remaining = %d, want 1", sub.RemainingRequests)
	}
}

func TestCanRequest(t *testing.T) {
	tests := []struct {
		name     string
		sub      *domain.Subscription
		wantCode string
	}{
		{
			name: "active with quota",
			sub: &domain.Subscription{
				UserID: "u1", Plan: domain.PlanFree,
				RemainingRequests: 1, Status: domain.SubscriptionActive,
				LastReset: time.Now().UTC(),
			},
		},
		{
			name: "quota spent",
			sub: &domain.Subscription{
				UserID: "u1", Plan: domain.PlanFree,
				RemainingRequests: 0, Status: domain.SubscriptionActive,
				LastReset: time.Now().UTC(),
			},
			wantCode: "QUOTA_EXCEEDED",
		},
		{
			name: "pending upgrade blocks even with quota",
			sub: &domain.Subscription{
				UserID: "u1", Plan: domain.PlanGold,
				RemainingRequests: 35, Status: domain.SubscriptionPending,
				LastReset: time.Now().UTC(),
			},
			wantCode: "PENDING_APPROVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newSubscriptionService(newFakeSubscriptionRepo(tt.sub), &recordingDispatcher{})
			_, err := svc.CanRequest(context.Background(), "u1")
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("CanRequest() error = %v", err)
				}
				return
			}
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Fatalf("CanRequest() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestGoldExpiryCalendarMonth(t *testing.T) {
	subscribed := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	prior := 0

	tests := []struct {
		name       string
		now        time.Time
		wantPlan   domain.Plan
		wantRemain int
		wantStatus domain.SubscriptionStatus
	}{
		{
			name:       "29 days later still gold",
			now:        subscribed.AddDate(0, 0, 29),
			wantPlan:   domain.PlanGold,
			wantRemain: 20,
			wantStatus: domain.SubscriptionApproved,
		},
		{
			// January is a 31-day month, so the calendar boundary lands
			// exactly 31 days out; that instant is already expired
			name:       "exactly one month later expired",
			now:        subscribed.AddDate(0, 1, 0),
			wantPlan:   domain.PlanFree,
			wantRemain: 0,
			wantStatus: domain.SubscriptionExpired,
		},
		{
			name:       "32 days later expired",
			now:        subscribed.AddDate(0, 0, 32),
			wantPlan:   domain.PlanFree,
			wantRemain: 0, // restored from the pre-upgrade snapshot
			wantStatus: domain.SubscriptionExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd := subscribed
			repo := newFakeSubscriptionRepo(&domain.Subscription{
				UserID:            "u1",
				Plan:              domain.PlanGold,
				RemainingRequests: 20,
				Status:            domain.SubscriptionApproved,
				SubscribedDate:    &sd,
				PriorRemaining:    &prior,
				LastReset:         subscribed,
			})
			svc := newSubscriptionService(repo, &recordingDispatcher{})
			svc.now = func() time.Time { return tt.now }

			sub, err := svc.Get(context.Background(), "u1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if sub.Plan != tt.wantPlan {
				t.Errorf("plan = %s, want %s", sub.Plan, tt.wantPlan)
			}
			if sub.RemainingRequests != tt.wantRemain {
				t.Errorf("remaining = %d, want %d", sub.RemainingRequests, tt.wantRemain)
			}
			if sub.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", sub.Status, tt.wantStatus)
			}
		})
	}
}

func TestFreeMonthlyRegrant(t *testing.T) {
	lastReset := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeSubscriptionRepo(&domain.Subscription{
		UserID:            "u1",
		Plan:              domain.PlanFree,
		RemainingRequests: 0,
		Status:            domain.SubscriptionActive,
		LastReset:         lastReset,
	})
	svc := newSubscriptionService(repo, &recordingDispatcher{})
	svc.now = func() time.Time { return lastReset.AddDate(0, 1, 1) }

	sub, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sub.RemainingRequests != 1 {
		t.Errorf("remaining after regrant = %d, want 1", sub.RemainingRequests)
	}
}

func TestUpgradeWorkflow(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	dispatcher := &recordingDispatcher{}
	svc := newSubscriptionService(repo, dispatcher)
	ctx := context.Background()

	// provision free, then ask for gold
	if _, err := svc.Get(ctx, "u1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	sub, err := svc.RequestUpgrade(ctx, "u1")
	if err != nil {
		t.Fatalf("RequestUpgrade() error = %v", err)
	}
	if sub.Status != domain.SubscriptionPending {
		t.Fatalf("status = %s, want Pending", sub.Status)
	}
	if sub.RemainingRequests != 35 {
		t.Errorf("granted quota = %d, want 35", sub.RemainingRequests)
	}
	if sub.PriorRemaining == nil || *sub.PriorRemaining != 1 {
		t.Errorf("prior snapshot = %v, want 1", sub.PriorRemaining)
	}

	// double ask rejected
	if _, err := svc.RequestUpgrade(ctx, "u1"); !apperrors.IsCode(err, "CONFLICT") {
		t.Errorf("second RequestUpgrade() error = %v, want CONFLICT", err)
	}

	approved, err := svc.ApproveUpgrade(ctx, "u1")
	if err != nil {
		t.Fatalf("ApproveUpgrade() error = %v", err)
	}
	if approved.Status != domain.SubscriptionApproved {
		t.Errorf("status = %s, want Approved", approved.Status)
	}
	if approved.SubscribedDate == nil {
		t.Error("subscribed date not set on approval")
	}
}

func TestRejectRestoresSnapshot(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newSubscriptionService(repo, &recordingDispatcher{})
	ctx := context.Background()

	if _, err := svc.Get(ctx, "u1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := svc.RequestUpgrade(ctx, "u1"); err != nil {
		t.Fatalf("RequestUpgrade() error = %v", err)
	}

	sub, err := svc.RejectUpgrade(ctx, "u1")
	if err != nil {
		t.Fatalf("RejectUpgrade() error = %v", err)
	}
	if sub.Plan != domain.PlanFree {
		t.Errorf("plan = %s, want Free", sub.Plan)
	}
	if sub.RemainingRequests != 1 {
		t.Errorf("remaining = %d, want the pre-upgrade balance 1", sub.RemainingRequests)
	}
	if sub.PriorRemaining != nil {
		t.Error("snapshot should be cleared after restore")
	}

	// rejecting again fails; nothing pending anymore
	if _, err := svc.RejectUpgrade(ctx, "u1"); !apperrors.IsCode(err, "CONFLICT") {
		t.Errorf("second RejectUpgrade() error = %v, want CONFLICT", err)
	}
}

func TestConsumeDecrements(t *testing.T) {
	repo := newFakeSubscriptionRepo(&domain.Subscription{
		UserID:            "u1",
		Plan:              domain.PlanFree,
		RemainingRequests: 1,
		Status:            domain.SubscriptionActive,
		LastReset:         time.Now().UTC(),
	})
	svc := newSubscriptionService(repo, &recordingDispatcher{})
	ctx := context.Background()

	svc.Consume(ctx, "u1")
	sub, _ := repo.Get(ctx, "u1")
	if sub.RemainingRequests != 0 {
		t.Errorf("remaining = %d, want 0", sub.RemainingRequests)
	}

	// already zero; stays zero
	svc.Consume(ctx, "u1")
	sub, _ = repo.Get(ctx, "u1")
	if sub.RemainingRequests != 0 {
		t.Errorf("remaining = %d, want 0", sub.RemainingRequests)
	}
}
