package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

func (r *Router) registerRBACRoutes(
	api fiber.Router,
	rh *handler.RBACHandler,
	authRequired, loadActor fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	rbac := api.Group("/rbac", authRequired, loadActor)

	rbac.Get("/policies", requirePerm(authorize.ResourceRBAC, authorize.ActionRead), rh.ListPolicies)
	rbac.Post("/policies", requirePerm(authorize.ResourceRBAC, authorize.ActionGrant), rh.GrantPermission)
	rbac.Delete("/policies", requirePerm(authorize.ResourceRBAC, authorize.ActionRevoke), rh.RevokePermission)
	rbac.Get("/users/:id/roles", requirePerm(authorize.ResourceRBAC, authorize.ActionRead), rh.UserRoles)
}
