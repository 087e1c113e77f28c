package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zetsuserv/support-portal/internal/api/http/handlers"
	"github.com/zetsuserv/support-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Tickets           *handlers.TicketsHandler
	Auth              *handlers.AuthHandler
	Admin             *handlers.AdminHandler
	Engagement        *handlers.EngagementHandler
	SessionMiddleware *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Live)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// All portal routes resolve the session cookie; guards below decide
	// what each route requires.
	portal := app.Group("", cfg.SessionMiddleware.Handle)

	portal.Post("/submit", cfg.Tickets.SubmitTicket)
	portal.Get("/track", cfg.Tickets.TrackTicket)
	portal.Post("/search_ticket", cfg.Tickets.SearchTickets)
	portal.Get("/faq", cfg.Tickets.ListFAQs)
	portal.Get("/news", cfg.Engagement.ListNews)

	portal.Post("/register", cfg.Auth.Register)
	portal.Post("/verify_otp", cfg.Auth.VerifyOTP)
	portal.Post("/login", cfg.Auth.Login)
	portal.Post("/logout", cfg.Auth.Logout)

	portal.Post("/subscribe_newsletter", cfg.Engagement.SubscribeNewsletter)
	portal.Post("/subscribe_push", cfg.Engagement.SubscribePush)

	admin := portal.Group("", auth.RequireAdmin())
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Post("/reply_ticket/:ticket_id", cfg.Admin.ReplyTicket)
	admin.Post("/bulk_resolve", cfg.Admin.BulkResolve)
	admin.Post("/delete_ticket/:ticket_id", cfg.Admin.DeleteTicket)
	admin.Get("/export_tickets", cfg.Admin.ExportTickets)
	admin.Post("/admin/broadcast", cfg.Admin.Broadcast)
	admin.Post("/admin/availability", cfg.Auth.SetAvailability)
	admin.Get("/admin/metrics", cfg.Health.Metrics)
}
