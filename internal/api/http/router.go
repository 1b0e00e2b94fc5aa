package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/itdesk/internal/api/http/handlers"
	"github.com/spec-kit/itdesk/internal/auth"
	"github.com/spec-kit/itdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Staff          *handlers.StaffHandler
	Issues         *handlers.IssuesHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.Middleware
	OTPLimiter     *OTPRateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	staff := app.Group("/staff")
	staff.Post("/register", cfg.OTPLimiter.Handle, cfg.Staff.Register)
	staff.Post("/verify-otp", cfg.Staff.VerifyOTP)
	staff.Post("/resend-otp", cfg.OTPLimiter.Handle, cfg.Staff.ResendOTP)
	staff.Post("/login/request", cfg.OTPLimiter.Handle, cfg.Staff.RequestLogin)
	staff.Post("/login/verify", cfg.Staff.VerifyLogin)

	authGroup := app.Group("/auth")
	authGroup.Post("/refresh", cfg.Staff.Refresh)
	authGroup.Post("/logout", cfg.Staff.Logout)

	me := staff.Group("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	me.Get("", cfg.Staff.Me)
	me.Put("", cfg.Staff.UpdateMe)

	accounts := staff.Group("/accounts", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.StaffRoleAdmin))
	accounts.Get("", cfg.Staff.ListAccounts)
	accounts.Get("/:id", cfg.Staff.GetAccount)
	accounts.Put("/:id", cfg.Staff.UpdateAccount)

	issues := app.Group("/issues")
	issues.Get("/categories", cfg.Issues.Categories)

	protected := issues.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("", cfg.Issues.Create)
	protected.Get("", cfg.Issues.List)
	protected.Get("/:id", cfg.Issues.Get)
	protected.Put("/:id", cfg.Issues.Update)
	protected.Patch("/:id", cfg.Issues.UpdateStatus)
	protected.Delete("/:id", cfg.Issues.Delete)

	app.Use("/notifications", cfg.AuthMiddleware.Handle, cfg.Notifications.Upgrade)
	app.Get("/notifications", cfg.Notifications.Stream())
}
