package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// UserService covers profile management, provider moderation, the admin
// catalog, and platform stats.
type UserService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	catalog  repository.CatalogRepository
	logger   *zap.Logger
}

// UserDependencies bundles collaborators for UserService.
type UserDependencies struct {
	Users    repository.UserRepository
	Requests repository.RequestRepository
	Catalog  repository.CatalogRepository
	Logger   *zap.Logger
}

// NewUserService wires the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:    deps.Users,
		requests: deps.Requests,
		catalog:  deps.Catalog,
		logger:   logger,
	}
}

// GetProfile loads an account by id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// ProfileUpdate carries the self-editable fields. Nil means unchanged.
type ProfileUpdate struct {
	Username    *string
	Phone       *string
	Address     *string
	SubDistrict *string
	District    *string
	City        *string
	State       *string
	Service     *string
	Website     *string
}

// UpdateProfile applies partial changes to the caller's own account.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&user.Username, update.Username)
	apply(&user.Phone, update.Phone)
	apply(&user.Address, update.Address)
	apply(&user.SubDistrict, update.SubDistrict)
	apply(&user.District, update.District)
	apply(&user.City, update.City)
	apply(&user.State, update.State)
	apply(&user.Website, update.Website)
	if update.Service != nil {
		if !user.IsProvider() {
			return nil, apperrors.NewForbidden("only providers declare a service")
		}
		user.Service = strings.ToLower(strings.TrimSpace(*update.Service))
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// SetAvailability toggles a provider's readiness to take work. Providers
// whose ID was never approved stay Unavailable.
func (s *UserService) SetAvailability(ctx context.Context, providerID string, availability domain.Availability) (*domain.User, error) {
	if availability != domain.AvailabilityAvailable && availability != domain.AvailabilityUnavailable {
		return nil, apperrors.NewValidationError("unknown availability", map[string]any{"availability": availability})
	}
	user, err := s.GetProfile(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !user.IsProvider() {
		return nil, apperrors.NewForbidden("only providers have availability")
	}
	if availability == domain.AvailabilityAvailable &&
		user.Source == "signup" && user.GovIDStatus != domain.GovIDApproved {
		return nil, apperrors.NewConflict("government ID not approved", map[string]any{"gov_id_status": user.GovIDStatus})
	}

	user.Availability = availability
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// ListUsers is the admin directory view.
func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	return users, total, nil
}

// DeleteUser removes an account; admins only. Admin accounts cannot be
// deleted through the API.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleAdmin {
		return apperrors.NewForbidden("admin accounts cannot be deleted")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// DecideGovID records the admin's verdict on a provider's uploaded ID. A
// rejection also pulls the provider off the market.
func (s *UserService) DecideGovID(ctx context.Context, providerID string, approve bool) (*domain.User, error) {
	user, err := s.GetProfile(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !user.IsProvider() {
		return nil, apperrors.NewConflict("user is not a provider", map[string]any{"role": user.Role})
	}
	if user.GovIDStatus != domain.GovIDPending {
		return nil, apperrors.NewConflict("government ID already decided", map[string]any{"gov_id_status": user.GovIDStatus})
	}

	if approve {
		user.GovIDStatus = domain.GovIDApproved
	} else {
		user.GovIDStatus = domain.GovIDRejected
		user.Availability = domain.AvailabilityUnavailable
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	Requesters       int64                          `json:"requesters"`
	Providers        int64                          `json:"providers"`
	RequestsByStatus map[domain.RequestStatus]int64 `json:"requests_by_status"`
	RequestsTotal    int64                          `json:"requests_total"`
	PendingGovIDs    int64                          `json:"pending_gov_ids"`
	CatalogServices  int                            `json:"catalog_services"`
}

// Stats aggregates platform counters for the admin dashboard.
func (s *UserService) Stats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{RequestsByStatus: make(map[domain.RequestStatus]int64)}

	requesterRole := domain.RoleRequester
	providerRole := domain.RoleProvider
	pending := domain.GovIDPending

	var err error
	if stats.Requesters, err = s.users.Count(ctx, repository.UserFilter{Role: &requesterRole}); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if stats.Providers, err = s.users.Count(ctx, repository.UserFilter{Role: &providerRole}); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if stats.PendingGovIDs, err = s.users.Count(ctx, repository.UserFilter{Role: &providerRole, GovIDStatus: &pending}); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	for _, status := range []domain.RequestStatus{
		domain.RequestStatusPending, domain.RequestStatusAssigned,
		domain.RequestStatusInProgress, domain.RequestStatusCompleted,
		domain.RequestStatusCancelled, domain.RequestStatusClosed,
	} {
		count, err := s.requests.Count(ctx, repository.RequestFilter{Statuses: []domain.RequestStatus{status}})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		stats.RequestsByStatus[status] = count
		stats.RequestsTotal += count
	}

	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	stats.CatalogServices = len(catalog)
	return stats, nil
}

// ListCatalog returns the admin-curated service names offered on signup.
func (s *UserService) ListCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// AddCatalogEntry inserts a new service name.
func (s *UserService) AddCatalogEntry(ctx context.Context, name string) (*domain.CatalogEntry, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperrors.NewValidationError("service name is required", nil)
	}
	entry := &domain.CatalogEntry{Name: name}
	if err := s.catalog.Create(ctx, entry); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entry, nil
}

// RemoveCatalogEntry deletes a catalog entry by id.
func (s *UserService) RemoveCatalogEntry(ctx context.Context, id string) error {
	if err := s.catalog.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("catalog entry", map[string]any{"id": id})
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}
