package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerFileRoutes(
	api fiber.Router,
	fh *handler.FileHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	files := api.Group("/files", authRequired, loadActor)

	f := files.Group("/:id")
	f.Get("/download", requirePerm(authorize.ResourcePatient, authorize.ActionRead), fh.Download)
	f.Delete("/", requirePerm(authorize.ResourcePatient, authorize.ActionUpdate), fh.Delete)
}
