package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerVisitRoutes(
	api fiber.Router,
	vh *handler.VisitHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	visits := api.Group("/visits", authRequired, loadActor)

	visits.Get("/", requirePerm(authorize.ResourceVisit, authorize.ActionList), vh.List)
	visits.Post("/", requirePerm(authorize.ResourceVisit, authorize.ActionCreate), vh.Record)

	v := visits.Group("/:id")
	v.Get("/", requirePerm(authorize.ResourceVisit, authorize.ActionRead), vh.GetByID)
	v.Patch("/", requirePerm(authorize.ResourceVisit, authorize.ActionUpdate), vh.Update)
	v.Delete("/", requirePerm(authorize.ResourceVisit, authorize.ActionDelete), vh.Delete)
}
