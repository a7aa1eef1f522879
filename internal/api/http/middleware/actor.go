package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/model"
	pasetotoken "github.com/dok75/clinic_backend/pkg/paseto"
)

const LocalsActor = "actor"

// LoadActor resolves the authenticated staff account from the token claims.
// It must run after AuthRequired. Deactivated accounts are rejected even
// when they still hold a live session.
func LoadActor(db *gorm.DB) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		var u model.User
		err := db.WithContext(c.Context()).First(&u, uint(claims.UserID)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.ErrUnauthorized
			}
			return err
		}
		if !u.IsActive {
			return fiber.ErrForbidden
		}

		c.Locals(LocalsActor, &u)
		return c.Next()
	}
}

// ActorFromFiber retrieves the staff account stored by LoadActor.
func ActorFromFiber(c fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(LocalsActor).(*model.User)
	return u, ok && u != nil
}
