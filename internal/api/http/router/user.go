package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(
	api fiber.Router,
	uh *handler.UserHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	users := api.Group("/users", authRequired, loadActor)

	users.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionList), uh.List)
	users.Post("/", requirePerm(authorize.ResourceUser, authorize.ActionCreate), uh.Create)

	u := users.Group("/:id")
	// No coarse gate on reads: the access engine allows self-reads for any role.
	u.Get("/", uh.GetByID)
	u.Patch("/", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), uh.Update)
	u.Delete("/", requirePerm(authorize.ResourceUser, authorize.ActionDelete), uh.Delete)
}
