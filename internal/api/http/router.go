package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/daily-status/internal/api/http/handlers"
	"github.com/spec-kit/daily-status/internal/auth"
	"github.com/spec-kit/daily-status/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Updates        *handlers.UpdatesHandler
	Teams          *handlers.TeamsHandler
	AuthMiddleware *auth.AuthMiddleware
	Registry       *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	signedIn := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	signedIn.Get("/me", cfg.Users.Me)
	signedIn.Post("/refresh", cfg.Users.Refresh)

	updates := app.Group("/updates", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	updates.Get("/", cfg.Updates.ListUpdates)
	updates.Post("/", cfg.Updates.CreateUpdate)
	updates.Get("/:id", cfg.Updates.GetUpdate)
	updates.Patch("/:id", cfg.Updates.EditUpdate)

	teams := app.Group("/teams", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	teams.Get("/", cfg.Teams.ListTeams)
	teams.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Teams.CreateTeam)
	teams.Post("/:id/members", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Teams.AddMember)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	users.Patch("/:id/role", cfg.Users.SetRole)
}
