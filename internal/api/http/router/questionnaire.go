package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerQuestionnaireRoutes(
	api fiber.Router,
	qh *handler.QuestionnaireHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	qs := api.Group("/questionnaires", authRequired, loadActor)

	qs.Post("/", requirePerm(authorize.ResourceQuestionnaire, authorize.ActionCreate), qh.Create)

	q := qs.Group("/:id")
	q.Get("/", requirePerm(authorize.ResourceQuestionnaire, authorize.ActionRead), qh.GetByID)
	q.Patch("/", requirePerm(authorize.ResourceQuestionnaire, authorize.ActionUpdate), qh.Update)
	q.Delete("/", requirePerm(authorize.ResourceQuestionnaire, authorize.ActionDelete), qh.Delete)
}
