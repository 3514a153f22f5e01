package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/discovery"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/events"
	"github.com/spec-kit/marketplace-service/internal/observability"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AssignmentService selects a provider for a service request. It reads the
// directory and may persist externally discovered providers, but it never
// writes service requests or subscriptions; that stays with the caller.
type AssignmentService struct {
	users      repository.UserRepository
	finder     discovery.Finder
	cache      *ProviderCache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.AssignmentConfig
}

// AssignmentDependencies bundles collaborators for AssignmentService.
type AssignmentDependencies struct {
	Users      repository.UserRepository
	Finder     discovery.Finder
	Cache      *ProviderCache
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Config     config.AssignmentConfig
}

// NewAssignmentService wires the orchestrator.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		users:      deps.Users,
		finder:     deps.Finder,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		cfg:        deps.Config,
	}
}

// Assign resolves the best provider for the requester's area and service
// type. Resolution order: local directory search widening outward through
// the requester's location hierarchy, then the external discovery chain.
// Returns the provider id, or a REQUESTER_NOT_FOUND / NO_PROVIDER_AVAILABLE
// domain error.
func (s *AssignmentService) Assign(ctx context.Context, requesterID, serviceType string) (string, error) {
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewRequesterNotFound(requesterID)
		}
		return "", apperrors.NewInternalError(err)
	}

	best, err := s.searchLocal(ctx, requester, serviceType)
	if err != nil {
		return "", err
	}
	if best != nil {
		s.logger.Info("provider assigned from directory",
			zap.String("requester_id", requesterID),
			zap.String("provider_id", best.ID),
			zap.String("service_type", serviceType))
		return best.ID, nil
	}

	providerID, err := s.discoverExternal(ctx, requester, serviceType)
	if err != nil {
		return "", err
	}
	if providerID != "" {
		return providerID, nil
	}

	return "", apperrors.NewNoProviderAvailable(serviceType)
}

// searchLocal widens the search one hierarchy level at a time and stops at
// the first level holding any fuzzy service match, even if every match is
// later dropped by the ranker. A saturated neighborhood does not justify
// poaching from the next city over.
func (s *AssignmentService) searchLocal(ctx context.Context, requester *domain.User, serviceType string) (*domain.User, error) {
	for _, level := range locationLevels(requester) {
		if level.value == "" {
			continue
		}
		candidates, err := s.candidatesAt(ctx, level, serviceType)
		if err != nil {
			return nil, err
		}

		matches := make([]domain.User, 0, len(candidates))
		for _, c := range candidates {
			if FuzzyMatch(c.Service, serviceType) {
				matches = append(matches, c)
			}
		}
		if len(matches) == 0 {
			continue
		}
		return RankProviders(matches, s.cfg.SaturationCap), nil
	}
	return nil, nil
}

func (s *AssignmentService) candidatesAt(ctx context.Context, level locationLevel, serviceType string) ([]domain.User, error) {
	if cached, ok := s.cache.Get(ctx, serviceType, level.field, level.value); ok {
		return cached, nil
	}

	role := domain.RoleProvider
	filter := repository.UserFilter{Role: &role, Limit: s.cfg.SearchPageSize}
	switch level.field {
	case "sub_district":
		filter.SubDistrict = &level.value
	case "district":
		filter.District = &level.value
	case "city":
		filter.City = &level.value
	case "state":
		filter.State = &level.value
	}

	candidates, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.cache.Set(ctx, serviceType, level.field, level.value, candidates)
	return candidates, nil
}

// discoverExternal consults the source chain and, on success, onboards the
// found business as a directory provider so future requests find it locally.
func (s *AssignmentService) discoverExternal(ctx context.Context, requester *domain.User, serviceType string) (string, error) {
	location := requester.State
	if hierarchy := requester.LocationHierarchy(); len(hierarchy) > 0 {
		location = hierarchy[0]
	}
	if location == "" {
		return "", nil
	}

	place, sourceName, err := s.finder.Find(ctx, serviceType, location)
	if err != nil {
		s.metrics.RecordDiscovery(sourceName, "error")
		return "", apperrors.NewInternalError(err)
	}
	if place == nil {
		s.metrics.RecordDiscovery("chain", "empty")
		return "", nil
	}
	s.metrics.RecordDiscovery(sourceName, "hit")

	provider := s.providerFromPlace(place, requester, serviceType, sourceName)
	if err := s.users.Create(ctx, provider); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	s.cache.Invalidate(ctx, serviceType)

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventProviderOnboarded,
			SubjectID: provider.ID,
			Actor:     events.Actor{Role: domain.RoleAdmin, UserID: "system"},
			Timestamp: time.Now().UTC(),
			Payload: events.ProviderOnboardedPayload{
				ProviderID:  provider.ID,
				Source:      provider.Source,
				ServiceName: serviceType,
				Location:    location,
			},
		})
	}

	s.logger.Info("provider onboarded from external source",
		zap.String("provider_id", provider.ID),
		zap.String("source", sourceName),
		zap.String("service_type", serviceType),
		zap.String("location", location))
	return provider.ID, nil
}

// providerFromPlace maps an external place onto a directory record. The new
// provider inherits the requester's location hierarchy so local search can
// reach it on the next request in the same area.
func (s *AssignmentService) providerFromPlace(place *discovery.Place, requester *domain.User, serviceType, sourceName string) *domain.User {
	rating := place.Rating
	if rating <= 0 {
		rating = s.cfg.DefaultRating
	}
	return &domain.User{
		Email:        "external+" + uuid.NewString() + "@discovered.local",
		Username:     place.Name,
		PasswordHash: "",
		Role:         domain.RoleProvider,
		Phone:        place.Phone,
		Address:      place.Address,
		SubDistrict:  requester.SubDistrict,
		District:     requester.District,
		City:         requester.City,
		State:        requester.State,

		Service:      strings.ToLower(strings.TrimSpace(serviceType)),
		Availability: domain.AvailabilityAvailable,
		Rating:       rating,
		SignupDate:   time.Now().UTC(),
		Website:      place.Website,
		Latitude:     place.Latitude,
		Longitude:    place.Longitude,
		Source:       "external:" + sourceName,
	}
}

// locationLevel pairs a hierarchy column with its value for one requester.
type locationLevel struct {
	field string
	value string
}

func locationLevels(u *domain.User) []locationLevel {
	return []locationLevel{
		{field: "sub_district", value: u.SubDistrict},
		{field: "district", value: u.District},
		{field: "city", value: u.City},
		{field: "state", value: u.State},
	}
}
