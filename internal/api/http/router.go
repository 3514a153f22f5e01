package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/http/handlers"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Auth             *handlers.AuthHandler
	Profile          *handlers.ProfileHandler
	Requests         *handlers.RequestsHandler
	ProviderRequests *handlers.ProviderRequestsHandler
	Subscription     *handlers.SubscriptionHandler
	Catalog          *handlers.CatalogHandler
	Admin            *handlers.AdminHandler
	AuthMiddleware   *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Auth.Register)
	app.Post("/auth/login", cfg.Auth.Login)

	app.Get("/catalog", cfg.Catalog.List)

	authed := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authed.Get("/profile", cfg.Profile.Get)
	authed.Patch("/profile", cfg.Profile.Update)

	requester := authed.Group("", auth.RequireRole(domain.RoleRequester))
	requester.Post("/requests", cfg.Requests.Create)
	requester.Get("/requests", cfg.Requests.List)
	requester.Post("/requests/:id/cancel", cfg.Requests.Cancel)
	requester.Post("/requests/:id/feedback", cfg.Requests.Feedback)
	requester.Get("/subscription", cfg.Subscription.Get)
	requester.Post("/subscription/upgrade", cfg.Subscription.RequestUpgrade)

	// any authenticated role may read a single request; the service enforces
	// ownership
	authed.Get("/requests/:id", cfg.Requests.Get)

	provider := authed.Group("/provider", auth.RequireRole(domain.RoleProvider))
	provider.Get("/requests", cfg.ProviderRequests.List)
	provider.Post("/requests/:id/start", cfg.ProviderRequests.Start)
	provider.Post("/requests/:id/complete", cfg.ProviderRequests.Complete)
	provider.Post("/availability", cfg.Profile.SetAvailability)

	admin := authed.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Post("/users/:id/gov-id", cfg.Admin.DecideGovID)
	admin.Get("/stats", cfg.Admin.Stats)
	admin.Get("/requests", cfg.Admin.ListRequests)
	admin.Post("/requests/:id/reassign", cfg.Admin.ReassignRequest)
	admin.Patch("/requests/:id/status", cfg.Admin.ForceRequestStatus)
	admin.Get("/subscriptions/pending", cfg.Admin.ListPendingUpgrades)
	admin.Post("/subscriptions/:userId/approve", cfg.Admin.ApproveUpgrade)
	admin.Post("/subscriptions/:userId/reject", cfg.Admin.RejectUpgrade)
	admin.Post("/catalog", cfg.Admin.AddCatalogEntry)
	admin.Delete("/catalog/:id", cfg.Admin.RemoveCatalogEntry)
}
