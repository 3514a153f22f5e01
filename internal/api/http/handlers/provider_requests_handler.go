package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// ProviderRequestsHandler manages the provider's view of assigned work.
type ProviderRequestsHandler struct {
	service *service.RequestService
}

// NewProviderRequestsHandler constructs handler.
func NewProviderRequestsHandler(requestService *service.RequestService) *ProviderRequestsHandler {
	return &ProviderRequestsHandler{service: requestService}
}

// List GET /provider/requests.
func (h *ProviderRequestsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("provider required")
	}
	limit, offset := parsePagination(c)
	requests, err := h.service.ListForProvider(c.Context(), principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponses(requests)})
}

// Start POST /provider/requests/:id/start.
func (h *ProviderRequestsHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("provider required")
	}
	req, err := h.service.Start(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Complete POST /provider/requests/:id/complete.
func (h *ProviderRequestsHandler) Complete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("provider required")
	}
	req, err := h.service.Complete(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}
