package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	appts := api.Group("/appointments", authRequired, loadActor)

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Get("/today", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.Today)
	appts.Get("/stats", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.Stats)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Book)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.GetByID)
	a.Patch("/", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.Update)
	a.Patch("/status", requirePerm(authorize.ResourceAppointment, authorize.ActionChangeStatus), ah.ChangeStatus)
	a.Patch("/cancel", requirePerm(authorize.ResourceAppointment, authorize.ActionChangeStatus), ah.Cancel)
	a.Post("/complete", requirePerm(authorize.ResourceAppointment, authorize.ActionComplete), ah.Complete)
	a.Delete("/", requirePerm(authorize.ResourceAppointment, authorize.ActionDelete), ah.Delete)
}
