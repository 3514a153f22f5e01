package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// SubscriptionHandler manages the requester's plan endpoints.
type SubscriptionHandler struct {
	service *service.SubscriptionService
}

// NewSubscriptionHandler constructs handler.
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: subscriptionService}
}

// Get GET /subscription.
func (h *SubscriptionHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	sub, err := h.service.Get(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

// RequestUpgrade POST /subscription/upgrade.
func (h *SubscriptionHandler) RequestUpgrade(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	sub, err := h.service.RequestUpgrade(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

func subscriptionResponse(sub *domain.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		UserID:            sub.UserID,
		Plan:              string(sub.Plan),
		RemainingRequests: sub.RemainingRequests,
		Status:            string(sub.Status),
		SubscribedDate:    sub.SubscribedDate,
		UpdatedAt:         sub.UpdatedAt,
	}
}
