package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/events"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

func activeSubscription(userID string, remaining int) *domain.Subscription {
	return &domain.Subscription{
		UserID:            userID,
		Plan:              domain.PlanFree,
		RemainingRequests: remaining,
		Status:            domain.SubscriptionActive,
		LastReset:         time.Now().UTC(),
	}
}

type requestFixture struct {
	svc        *RequestService
	users      *fakeUserRepo
	requests   *fakeRequestRepo
	subs       *fakeSubscriptionRepo
	assigner   *fakeAssigner
	dispatcher *recordingDispatcher
}

func newRequestFixture(assigner *fakeAssigner, users *fakeUserRepo, subs ...*domain.Subscription) *requestFixture {
	subRepo := newFakeSubscriptionRepo(subs...)
	dispatcher := &recordingDispatcher{}
	subscriptionService := newSubscriptionService(subRepo, dispatcher)
	requestRepo := newFakeRequestRepo()
	svc := NewRequestService(RequestDependencies{
		Requests:      requestRepo,
		Users:         users,
		Subscriptions: subscriptionService,
		Assigner:      assigner,
		Dispatcher:    dispatcher,
	})
	return &requestFixture{
		svc:        svc,
		users:      users,
		requests:   requestRepo,
		subs:       subRepo,
		assigner:   assigner,
		dispatcher: dispatcher,
	}
}

func TestCreateAssignsProvider(t *testing.T) {
	users := newFakeUserRepo(
		requester("r1"),
		localProvider("p1", "plumbing", "andheri", "mumbai", 4.0, 0),
	)
	fix := newRequestFixture(&fakeAssigner{providerID: "p1"}, users, activeSubscription("r1", 1))

	req, err := fix.svc.Create(context.Background(), "r1", "plumbing")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if req.Status != domain.RequestStatusAssigned {
		t.Errorf("status = %s, want Assigned", req.Status)
	}
	if req.AssignedTo == nil || *req.AssignedTo != "p1" {
		t.Errorf("assigned_to = %v, want p1", req.AssignedTo)
	}

	// quota consumed
	sub, _ := fix.subs.Get(context.Background(), "r1")
	if sub.RemainingRequests != 0 {
		t.Errorf("remaining = %d, want 0", sub.RemainingRequests)
	}

	// provider load bumped
	p1, _ := users.GetByID(context.Background(), "p1")
	if p1.ActiveRequests != 1 {
		t.Errorf("provider active_requests = %d, want 1", p1.ActiveRequests)
	}

	if got := len(fix.dispatcher.byType(events.EventRequestAssigned)); got != 1 {
		t.Errorf("request_assigned events = %d, want 1", got)
	}
}

func TestCreateNoProviderPersistsPending(t *testing.T) {
	users := newFakeUserRepo(requester("r1"))
	fix := newRequestFixture(
		&fakeAssigner{err: apperrors.NewNoProviderAvailable("plumbing")},
		users, activeSubscription("r1", 1))

	req, err := fix.svc.Create(context.Background(), "r1", "plumbing")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if req.Status != domain.RequestStatusPending {
		t.Errorf("status = %s, want Pending", req.Status)
	}
	if req.AssignedTo != nil {
		t.Errorf("assigned_to = %v, want nil", req.AssignedTo)
	}

	// quota untouched when nothing was assigned
	sub, _ := fix.subs.Get(context.Background(), "r1")
	if sub.RemainingRequests != 1 {
		t.Errorf("remaining = %d, want 1", sub.RemainingRequests)
	}
}

func TestCreateQuotaGate(t *testing.T) {
	users := newFakeUserRepo(requester("r1"))
	fix := newRequestFixture(&fakeAssigner{providerID: "p1"}, users, activeSubscription("r1", 0))

	_, err := fix.svc.Create(context.Background(), "r1", "plumbing")
	if !apperrors.IsCode(err, "QUOTA_EXCEEDED") {
		t.Fatalf("Create() error = %v, want QUOTA_EXCEEDED", err)
	}
	if fix.assigner.calls != 0 {
		t.Errorf("assigner called %d times, want 0; gate must run first", fix.assigner.calls)
	}
}

func TestCreateRequesterNotFoundPropagates(t *testing.T) {
	users := newFakeUserRepo()
	fix := newRequestFixture(
		&fakeAssigner{err: apperrors.NewRequesterNotFound("ghost")},
		users, activeSubscription("ghost", 1))

	_, err := fix.svc.Create(context.Background(), "ghost", "plumbing")
	if !apperrors.IsCode(err, "REQUESTER_NOT_FOUND") {
		t.Fatalf("Create() error = %v, want REQUESTER_NOT_FOUND", err)
	}
	if got := len(fix.requests.requests); got != 0 {
		t.Errorf("persisted requests = %d, want 0", got)
	}
}

func TestProviderLifecycle(t *testing.T) {
	users := newFakeUserRepo(
		requester("r1"),
		localProvider("p1", "plumbing", "andheri", "mumbai", 4.0, 0),
	)
	fix := newRequestFixture(&fakeAssigner{providerID: "p1"}, users, activeSubscription("r1", 5))
	ctx := context.Background()

	req, err := fix.svc.Create(ctx, "r1", "plumbing")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// wrong provider cannot start
	if _, err := fix.svc.Start(ctx, "p2", req.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("Start() by stranger error = %v, want FORBIDDEN", err)
	}

	started, err := fix.svc.Start(ctx, "p1", req.ID)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if started.Status != domain.RequestStatusInProgress {
		t.Errorf("status = %s, want InProgress", started.Status)
	}

	completed, err := fix.svc.Complete(ctx, "p1", req.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completed.Status != domain.RequestStatusCompleted {
		t.Errorf("status = %s, want Completed", completed.Status)
	}

	p1, _ := users.GetByID(ctx, "p1")
	if p1.ActiveRequests != 0 || p1.CompletedJobs != 1 {
		t.Errorf("counters = active %d completed %d, want 0 and 1", p1.ActiveRequests, p1.CompletedJobs)
	}

	// completing twice is an invalid transition
	if _, err := fix.svc.Complete(ctx, "p1", req.ID); !apperrors.IsCode(err, "CONFLICT") {
		t.Errorf("second Complete() error = %v, want CONFLICT", err)
	}
}

func TestFeedbackClosesAndFoldsRating(t *testing.T) {
	prov := localProvider("p1", "plumbing", "andheri", "mumbai", 4.0, 0)
	prov.CompletedJobs = 0
	users := newFakeUserRepo(requester("r1"), prov)
	fix := newRequestFixture(&fakeAssigner{providerID: "p1"}, users, activeSubscription("r1", 5))
	ctx := context.Background()

	req, _ := fix.svc.Create(ctx, "r1", "plumbing")
	if _, err := fix.svc.Start(ctx, "p1", req.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := fix.svc.Complete(ctx, "p1", req.ID); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	closed, err := fix.svc.SubmitFeedback(ctx, "r1", req.ID, 2, "slow")
	if err != nil {
		t.Fatalf("SubmitFeedback() error = %v", err)
	}
	if closed.Status != domain.RequestStatusClosed {
		t.Errorf("status = %s, want Closed", closed.Status)
	}
	if closed.Rating == nil || *closed.Rating != 2 {
		t.Errorf("rating = %v, want 2", closed.Rating)
	}

	// first completed job: average is exactly the submitted rating
	p1, _ := users.GetByID(ctx, "p1")
	if p1.Rating != 2.0 {
		t.Errorf("provider rating = %v, want 2.0", p1.Rating)
	}
}

func TestFeedbackValidation(t *testing.T) {
	users := newFakeUserRepo(requester("r1"))
	fix := newRequestFixture(&fakeAssigner{providerID: "p1"}, users, activeSubscription("r1", 5))

	if _, err := fix.svc.SubmitFeedback(context.Background(), "r1", "req-1", 6, ""); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("SubmitFeedback(rating=6) error = %v, want VALIDATION_FAILED", err)
	}
	if _, err := fix.svc.SubmitFeedback(context.Background(), "r1", "req-1", 0, ""); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("SubmitFeedback(rating=0) error = %v, want VALIDATION_FAILED", err)
	}
}

func TestCancelReleasesProvider(t *testing.T) {
	users := newFakeUserRepo(
		requester("r1"),
		localProvider("p1", "plumbing", "andheri", "mumbai", 4.0, 0),
	)
	fix := newRequestFixture(&fakeAssigner{providerID: "p1"}, users, activeSubscription("r1", 5))
	ctx := context.Background()

	req, _ := fix.svc.Create(ctx, "r1", "plumbing")

	// stranger cannot cancel
	if _, err := fix.svc.Cancel(ctx, "r2", req.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("Cancel() by stranger error = %v, want FORBIDDEN", err)
	}

	cancelled, err := fix.svc.Cancel(ctx, "r1", req.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != domain.RequestStatusCancelled {
		t.Errorf("status = %s, want Cancelled", cancelled.Status)
	}
	p1, _ := users.GetByID(ctx, "p1")
	if p1.ActiveRequests != 0 {
		t.Errorf("provider active_requests = %d, want 0", p1.ActiveRequests)
	}
}

func TestReassign(t *testing.T) {
	users := newFakeUserRepo(
		requester("r1"),
		localProvider("p1", "plumbing", "andheri", "mumbai", 4.0, 1),
		localProvider("p2", "plumbing", "andheri", "mumbai", 4.5, 0),
	)
	fix := newRequestFixture(&fakeAssigner{providerID: "p1"}, users, activeSubscription("r1", 5))
	ctx := context.Background()

	req, _ := fix.svc.Create(ctx, "r1", "plumbing")

	fix.assigner.providerID = "p2"
	updated, err := fix.svc.Reassign(ctx, "admin-1", req.ID)
	if err != nil {
		t.Fatalf("Reassign() error = %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != "p2" {
		t.Errorf("assigned_to = %v, want p2", updated.AssignedTo)
	}
}

func TestForceStatus(t *testing.T) {
	users := newFakeUserRepo(requester("r1"))
	fix := newRequestFixture(
		&fakeAssigner{err: apperrors.NewNoProviderAvailable("plumbing")},
		users, activeSubscription("r1", 5))
	ctx := context.Background()

	req, _ := fix.svc.Create(ctx, "r1", "plumbing")

	if _, err := fix.svc.ForceStatus(ctx, "admin-1", req.ID, "Bogus"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("ForceStatus(Bogus) error = %v, want VALIDATION_FAILED", err)
	}

	updated, err := fix.svc.ForceStatus(ctx, "admin-1", req.ID, domain.RequestStatusRejected)
	if err != nil {
		t.Fatalf("ForceStatus() error = %v", err)
	}
	if updated.Status != domain.RequestStatusRejected {
		t.Errorf("status = %s, want Rejected", updated.Status)
	}
}
