package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AuthService handles account registration and login.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger *zap.Logger
	cfg    config.AuthConfig
}

// AuthDependencies bundles collaborators for AuthService.
type AuthDependencies struct {
	Users  repository.UserRepository
	Tokens *auth.TokenManager
	Logger *zap.Logger
	Config config.AuthConfig
}

// NewAuthService wires the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: deps.Users, tokens: deps.Tokens, logger: logger, cfg: deps.Config}
}

// RegisterInput carries signup data. Provider fields are ignored for
// requester signups.
type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	Role        domain.Role
	Phone       string
	Address     string
	SubDistrict string
	District    string
	City        string
	State       string
	Service     string
	GovIDURL    string
}

// Register creates an account. Providers start Unavailable with a Pending
// government ID so an admin must approve them before they can take work.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || input.Username == "" {
		return nil, apperrors.NewValidationError("email, username and password are required", nil)
	}
	if input.Role != domain.RoleRequester && input.Role != domain.RoleProvider {
		return nil, apperrors.NewValidationError("role must be user or service_provider", map[string]any{"role": input.Role})
	}
	if input.Role == domain.RoleProvider && input.Service == "" {
		return nil, apperrors.NewValidationError("providers must declare a service", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		Username:     input.Username,
		PasswordHash: hash,
		Role:         input.Role,
		Phone:        input.Phone,
		Address:      input.Address,
		SubDistrict:  input.SubDistrict,
		District:     input.District,
		City:         input.City,
		State:        input.State,
		SignupDate:   time.Now().UTC(),
	}
	if input.Role == domain.RoleProvider {
		user.Service = strings.ToLower(strings.TrimSpace(input.Service))
		user.Availability = domain.AvailabilityUnavailable
		user.GovIDURL = input.GovIDURL
		user.GovIDStatus = domain.GovIDPending
		user.Source = "signup"
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("account registered",
		zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// LoginResult is the issued credential pair.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
