package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/model"
	"github.com/dok75/clinic_backend/pkg/authorize"
)

// RequirePermission runs the coarse role/resource/action check against the
// casbin table. Record-level rules (own appointments, roster patients) are
// the access engine's job and run inside the services after this gate.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		// Admins carry their grouping in the sys domain; clinic staff in
		// their clinic's domain.
		domain := authorize.DomainSys
		if actor.Role != model.RoleAdmin && actor.ClinicID != nil {
			domain = authorize.ClinicDomain(*actor.ClinicID)
		}

		subject := authorize.UserSubject(actor.ID)
		if err := auth.MustEnforce(c.Context(), subject, domain, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}
