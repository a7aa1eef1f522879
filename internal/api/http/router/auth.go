package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired, loadActor fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/login", h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", authRequired, h.Logout)
	group.Get("/me", authRequired, loadActor, h.Me)
	group.Post("/change-password", authRequired, loadActor, h.ChangePassword)
}
