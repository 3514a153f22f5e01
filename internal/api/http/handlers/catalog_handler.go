package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/service"
)

// CatalogHandler exposes the public service catalog used by signup forms.
type CatalogHandler struct {
	service *service.UserService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(userService *service.UserService) *CatalogHandler {
	return &CatalogHandler{service: userService}
}

// List GET /catalog.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	entries, err := h.service.ListCatalog(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.CatalogEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, catalogResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
