package service

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/marketplace-service/internal/discovery"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/events"
	"github.com/spec-kit/marketplace-service/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int

	createErr error
	listErr   error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	user.ID = "u-" + strconv.Itoa(r.nextID)
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []domain.User
	for _, user := range r.users {
		if matchesFilter(user, filter) {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) Count(_ context.Context, filter repository.UserFilter) (int64, error) {
	users, err := r.List(context.Background(), filter)
	return int64(len(users)), err
}

func (r *fakeUserRepo) AdjustCounters(_ context.Context, id string, activeDelta, completedDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ActiveRequests += activeDelta
	if user.ActiveRequests < 0 {
		user.ActiveRequests = 0
	}
	user.CompletedJobs += completedDelta
	if user.CompletedJobs < 0 {
		user.CompletedJobs = 0
	}
	return nil
}

func matchesFilter(user *domain.User, filter repository.UserFilter) bool {
	if filter.Role != nil && user.Role != *filter.Role {
		return false
	}
	if filter.SubDistrict != nil && user.SubDistrict != *filter.SubDistrict {
		return false
	}
	if filter.District != nil && user.District != *filter.District {
		return false
	}
	if filter.City != nil && user.City != *filter.City {
		return false
	}
	if filter.State != nil && user.State != *filter.State {
		return false
	}
	if filter.Availability != nil && user.Availability != *filter.Availability {
		return false
	}
	if filter.GovIDStatus != nil && user.GovIDStatus != *filter.GovIDStatus {
		return false
	}
	return true
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.ServiceRequest
	nextID   int

	createErr error
	updateErr error
}

func newFakeRequestRepo(requests ...*domain.ServiceRequest) *fakeRequestRepo {
	repo := &fakeRequestRepo{requests: make(map[string]*domain.ServiceRequest)}
	for _, req := range requests {
		repo.requests[req.ID] = req
	}
	return repo
}

func (r *fakeRequestRepo) Create(_ context.Context, req *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	req.ID = "req-" + strconv.Itoa(r.nextID)
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) Update(_ context.Context, req *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.requests[req.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ServiceRequest
	for _, req := range r.requests {
		if filter.RequestedBy != nil && req.RequestedBy != *filter.RequestedBy {
			continue
		}
		if filter.AssignedTo != nil && (req.AssignedTo == nil || *req.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, req.Status) {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *fakeRequestRepo) Count(ctx context.Context, filter repository.RequestFilter) (int64, error) {
	requests, err := r.ListWithFilter(ctx, filter)
	return int64(len(requests)), err
}

func containsStatus(statuses []domain.RequestStatus, status domain.RequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*domain.Subscription

	upsertErr error
}

func newFakeSubscriptionRepo(subs ...*domain.Subscription) *fakeSubscriptionRepo {
	repo := &fakeSubscriptionRepo{subs: make(map[string]*domain.Subscription)}
	for _, sub := range subs {
		repo.subs[sub.UserID] = sub
	}
	return repo
}

func (r *fakeSubscriptionRepo) Get(_ context.Context, userID string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubscriptionRepo) Upsert(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	copied := *sub
	r.subs[sub.UserID] = &copied
	return nil
}

func (r *fakeSubscriptionRepo) ListByStatus(_ context.Context, status domain.SubscriptionStatus) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Subscription
	for _, sub := range r.subs {
		if sub.Status == status {
			result = append(result, *sub)
		}
	}
	return result, nil
}

type fakeFinder struct {
	place  *discovery.Place
	source string
	err    error
	calls  int
}

func (f *fakeFinder) Find(_ context.Context, _, _ string) (*discovery.Place, string, error) {
	f.calls++
	return f.place, f.source, f.err
}

type fakeAssigner struct {
	providerID string
	err        error
	calls      int
}

func (f *fakeAssigner) Assign(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.providerID, nil
}

// fakeRedis is an in-memory CacheClient built on go-redis result helpers.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if ok, _ := path.Match(match, k); ok {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
