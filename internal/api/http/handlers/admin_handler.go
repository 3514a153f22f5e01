package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/repository"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// AdminHandler groups moderation and platform management endpoints.
type AdminHandler struct {
	users         *service.UserService
	requests      *service.RequestService
	subscriptions *service.SubscriptionService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(userService *service.UserService, requestService *service.RequestService, subscriptionService *service.SubscriptionService) *AdminHandler {
	return &AdminHandler{users: userService, requests: requestService, subscriptions: subscriptionService}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	filter := repository.UserFilter{}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	if city := c.Query("city"); city != "" {
		filter.City = &city
	}
	if state := c.Query("state"); state != "" {
		filter.State = &state
	}
	if govID := c.Query("gov_id_status"); govID != "" {
		g := domain.GovIDStatus(govID)
		filter.GovIDStatus = &g
	}
	filter.Limit, filter.Offset = parsePagination(c)

	users, total, err := h.users.ListUsers(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		items = append(items, userSummary(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items, "total": total})
}

// DeleteUser DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.users.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DecideGovID POST /admin/users/:id/gov-id.
func (h *AdminHandler) DecideGovID(c *fiber.Ctx) error {
	var req dto.GovIDDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.DecideGovID(c.Context(), c.Params("id"), req.Approve)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userSummary(user)})
}

// Stats GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.users.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ListRequests GET /admin/requests.
func (h *AdminHandler) ListRequests(c *fiber.Ctx) error {
	var statuses []domain.RequestStatus
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			statuses = append(statuses, domain.RequestStatus(strings.TrimSpace(part)))
		}
	}
	limit, offset := parsePagination(c)
	requests, err := h.requests.ListAll(c.Context(), statuses, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponses(requests)})
}

// ReassignRequest POST /admin/requests/:id/reassign.
func (h *AdminHandler) ReassignRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("admin required")
	}
	req, err := h.requests.Reassign(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// ForceRequestStatus PATCH /admin/requests/:id/status.
func (h *AdminHandler) ForceRequestStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.ForceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.requests.ForceStatus(c.Context(), principal.User.ID, c.Params("id"), domain.RequestStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(updated)})
}

// ListPendingUpgrades GET /admin/subscriptions/pending.
func (h *AdminHandler) ListPendingUpgrades(c *fiber.Ctx) error {
	subs, err := h.subscriptions.ListPending(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		items = append(items, subscriptionResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ApproveUpgrade POST /admin/subscriptions/:userId/approve.
func (h *AdminHandler) ApproveUpgrade(c *fiber.Ctx) error {
	sub, err := h.subscriptions.ApproveUpgrade(c.Context(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

// RejectUpgrade POST /admin/subscriptions/:userId/reject.
func (h *AdminHandler) RejectUpgrade(c *fiber.Ctx) error {
	sub, err := h.subscriptions.RejectUpgrade(c.Context(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

// AddCatalogEntry POST /admin/catalog.
func (h *AdminHandler) AddCatalogEntry(c *fiber.Ctx) error {
	var req dto.CreateCatalogEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.users.AddCatalogEntry(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": catalogResponse(entry)})
}

// RemoveCatalogEntry DELETE /admin/catalog/:id.
func (h *AdminHandler) RemoveCatalogEntry(c *fiber.Ctx) error {
	if err := h.users.RemoveCatalogEntry(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func catalogResponse(entry *domain.CatalogEntry) dto.CatalogEntryResponse {
	return dto.CatalogEntryResponse{ID: entry.ID, Name: entry.Name, CreatedAt: entry.CreatedAt}
}
