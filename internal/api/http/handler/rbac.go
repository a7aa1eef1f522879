package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/pkg/authorize"
)

// RBACHandler exposes the policy table to operators. The seeded defaults are
// ordinary rows, so a deployment that wants, say, receptionists barred from
// deleting appointments revokes that row here instead of patching code.
type RBACHandler struct {
	auth authorize.IAuthorization
}

func NewRBACHandler(auth authorize.IAuthorization) *RBACHandler {
	return &RBACHandler{auth: auth}
}

type policyBody struct {
	Role     string `json:"role"`
	Domain   string `json:"domain"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Effect   string `json:"effect"`
}

func (b *policyBody) normalize() (authorize.Role, authorize.Domain, authorize.Resource, authorize.Action, authorize.PolicyEffect) {
	domain := authorize.Domain(b.Domain)
	if b.Domain == "" {
		domain = authorize.WildcardDomain
	}
	effect := authorize.PolicyEffect(b.Effect)
	if b.Effect == "" {
		effect = authorize.EffectAllow
	}
	return authorize.Role(b.Role), domain, authorize.Resource(b.Resource), authorize.Action(b.Action), effect
}

// POST /api/v1/rbac/policies
func (h *RBACHandler) GrantPermission(c fiber.Ctx) error {
	var body policyBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	role, domain, resource, action, effect := body.normalize()
	added, err := h.auth.AddPermission(c.Context(), role, domain, resource, action, effect)
	if err != nil {
		return mapRBACError(c, err)
	}
	return okResponse(c, fiber.Map{"added": added})
}

// DELETE /api/v1/rbac/policies
func (h *RBACHandler) RevokePermission(c fiber.Ctx) error {
	var body policyBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	role, domain, resource, action, effect := body.normalize()
	removed, err := h.auth.RemovePermission(c.Context(), role, domain, resource, action, effect)
	if err != nil {
		return mapRBACError(c, err)
	}
	return okResponse(c, fiber.Map{"removed": removed})
}

// GET /api/v1/rbac/policies
func (h *RBACHandler) ListPolicies(c fiber.Ctx) error {
	policies, err := h.auth.Raw().GetPolicy()
	if err != nil {
		return internalError(c)
	}
	return okResponse(c, policies)
}

// GET /api/v1/rbac/users/:id/roles
func (h *RBACHandler) UserRoles(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	domain := authorize.DomainSys
	if d := c.Query("domain"); d != "" {
		domain = authorize.Domain(d)
	}

	roles, err := h.auth.GetRolesForUserInDomain(c.Context(), authorize.UserSubject(id), domain)
	if err != nil {
		return mapRBACError(c, err)
	}
	return okResponse(c, roles)
}

func mapRBACError(c fiber.Ctx, err error) error {
	if errors.Is(err, authorize.ErrInvalidArgs) {
		return badRequest(c, err.Error())
	}
	return internalError(c)
}
