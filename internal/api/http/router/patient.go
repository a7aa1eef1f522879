package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerPatientRoutes(
	api fiber.Router,
	ph *handler.PatientHandler,
	qh *handler.QuestionnaireHandler,
	fh *handler.FileHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	patients := api.Group("/patients", authRequired, loadActor)

	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), ph.List)
	patients.Post("/", requirePerm(authorize.ResourcePatient, authorize.ActionCreate), ph.Create)
	patients.Get("/number/:number", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.GetByNumber)

	p := patients.Group("/:id")
	p.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.GetByID)
	p.Patch("/", requirePerm(authorize.ResourcePatient, authorize.ActionUpdate), ph.Update)
	p.Delete("/", requirePerm(authorize.ResourcePatient, authorize.ActionDelete), ph.Delete)
	p.Get("/history", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.History)

	p.Get("/questionnaires", requirePerm(authorize.ResourceQuestionnaire, authorize.ActionList), qh.ListByPatient)

	p.Get("/files", requirePerm(authorize.ResourcePatient, authorize.ActionRead), fh.ListByPatient)
	p.Post("/files", requirePerm(authorize.ResourcePatient, authorize.ActionUpdate), fh.Upload)
}
