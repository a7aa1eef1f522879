package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/access"
)

func okResponse(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func forbidden(c fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func tooManyRequests(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// deniedResponse maps a failed record-level access decision to 403, keeping
// the predicate name in the payload so clients can distinguish, say, an
// ownership problem from a terminal-state block.
func deniedResponse(c fiber.Ctx, d *access.DeniedError) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error":  "forbidden",
		"reason": string(d.Reason),
	})
}

// asDenied unwraps an access denial from a service error chain.
func asDenied(err error) (*access.DeniedError, bool) {
	var d *access.DeniedError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// paramID parses a numeric path parameter.
func paramID(c fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(v), nil
}

// queryUint parses an optional numeric query parameter.
func queryUint(c fiber.Ctx, name string) *uint {
	s := c.Query(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}
