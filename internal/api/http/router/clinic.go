package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerClinicRoutes(
	api fiber.Router,
	ch *handler.ClinicHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	clinics := api.Group("/clinics", authRequired, loadActor)
	clinics.Get("/", requirePerm(authorize.ResourceClinic, authorize.ActionList), ch.ListClinics)
	clinics.Post("/", requirePerm(authorize.ResourceClinic, authorize.ActionCreate), ch.CreateClinic)
	clinics.Get("/:id", requirePerm(authorize.ResourceClinic, authorize.ActionRead), ch.GetClinic)
	clinics.Patch("/:id", requirePerm(authorize.ResourceClinic, authorize.ActionUpdate), ch.UpdateClinic)
	clinics.Delete("/:id", requirePerm(authorize.ResourceClinic, authorize.ActionDelete), ch.DeleteClinic)

	departments := api.Group("/departments", authRequired, loadActor)
	departments.Get("/", requirePerm(authorize.ResourceDepartment, authorize.ActionList), ch.ListDepartments)
	departments.Post("/", requirePerm(authorize.ResourceDepartment, authorize.ActionCreate), ch.CreateDepartment)
	departments.Patch("/:id", requirePerm(authorize.ResourceDepartment, authorize.ActionUpdate), ch.UpdateDepartment)
	departments.Delete("/:id", requirePerm(authorize.ResourceDepartment, authorize.ActionDelete), ch.DeleteDepartment)

	specializations := api.Group("/specializations", authRequired, loadActor)
	specializations.Get("/", requirePerm(authorize.ResourceSpecialization, authorize.ActionList), ch.ListSpecializations)
	specializations.Post("/", requirePerm(authorize.ResourceSpecialization, authorize.ActionCreate), ch.CreateSpecialization)
	specializations.Patch("/:id", requirePerm(authorize.ResourceSpecialization, authorize.ActionUpdate), ch.UpdateSpecialization)
	specializations.Delete("/:id", requirePerm(authorize.ResourceSpecialization, authorize.ActionDelete), ch.DeleteSpecialization)

	treatments := api.Group("/treatments", authRequired, loadActor)
	treatments.Get("/", requirePerm(authorize.ResourceTreatment, authorize.ActionList), ch.ListTreatments)
	treatments.Post("/", requirePerm(authorize.ResourceTreatment, authorize.ActionCreate), ch.CreateTreatment)
	treatments.Patch("/:id", requirePerm(authorize.ResourceTreatment, authorize.ActionUpdate), ch.UpdateTreatment)
	treatments.Delete("/:id", requirePerm(authorize.ResourceTreatment, authorize.ActionDelete), ch.DeleteTreatment)
}
