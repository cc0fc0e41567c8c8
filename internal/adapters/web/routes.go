package web

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures the application routes. Login and the probes
// stay outside the auth gate; the generation endpoint additionally
// sits behind the rate limiter.
func SetupRoutes(app *fiber.App, h *Handlers, auth *Auth, generateLimiter *RateLimiter) {
	app.Get("/healthz", h.Health)
	app.Get("/poster/preview", h.PosterPreview)
	app.Post("/api/login", h.Login)

	api := app.Group("/api", auth.RequireLeader())

	api.Get("/dashboard", h.Dashboard)

	api.Post("/tips/generate", generateLimiter.Middleware(), h.GenerateTip)
	api.Post("/tips/send", h.SendTip)
	api.Post("/tips/reset", h.ResetTipFlow)
	api.Get("/tips/state", h.TipFlowState)
	api.Get("/tips", h.ListTips)
	api.Delete("/tips/:id", h.DeleteTip)

	api.Get("/activities", h.ListActivities)
	api.Post("/activities", h.CreateActivity)
	api.Put("/activities/:id", h.UpdateActivity)
	api.Delete("/activities/:id", h.DeleteActivity)

	api.Get("/tasks", h.ListTasks)
	api.Post("/tasks", h.CreateTask)
	api.Put("/tasks/:id", h.UpdateTask)
	api.Delete("/tasks/:id", h.DeleteTask)

	api.Post("/chat", h.Chat)
}
