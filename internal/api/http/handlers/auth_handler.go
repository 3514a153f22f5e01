package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AuthHandler manages signup and login endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.service.Register(c.Context(), service.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		Role:        domain.Role(req.Role),
		Phone:       req.Phone,
		Address:     req.Address,
		SubDistrict: req.SubDistrict,
		District:    req.District,
		City:        req.City,
		State:       req.State,
		Service:     req.Service,
		GovIDURL:    req.GovIDURL,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userSummary(user)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userSummary(result.User),
	}})
}

func userSummary(user *domain.User) dto.UserSummary {
	return dto.UserSummary{
		ID:             user.ID,
		Email:          user.Email,
		Username:       user.Username,
		Role:           string(user.Role),
		Phone:          user.Phone,
		Address:        user.Address,
		SubDistrict:    user.SubDistrict,
		District:       user.District,
		City:           user.City,
		State:          user.State,
		Service:        user.Service,
		Availability:   string(user.Availability),
		Rating:         user.Rating,
		CompletedJobs:  user.CompletedJobs,
		ActiveRequests: user.ActiveRequests,
		GovIDStatus:    string(user.GovIDStatus),
		Website:        user.Website,
		Latitude:       user.Latitude,
		Longitude:      user.Longitude,
		Source:         user.Source,
		CreatedAt:      user.CreatedAt,
	}
}
