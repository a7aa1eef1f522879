package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
	"github.com/dok75/clinic_backend/internal/service/appointment"
)

// serve runs a single handler and returns status plus decoded JSON body.
func serve(t *testing.T, h fiber.Handler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestOKResponseEnvelope(t *testing.T) {
	status, body := serve(t, func(c fiber.Ctx) error {
		return okResponse(c, fiber.Map{"id": 1})
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "data")
}

func TestMapAppointmentError(t *testing.T) {
	t.Run("invalid transition maps to conflict", func(t *testing.T) {
		status, body := serve(t, func(c fiber.Ctx) error {
			return mapAppointmentError(c, &appointment.InvalidTransitionError{
				From: model.StatusCancelled,
				To:   model.StatusCompleted,
			})
		})
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Contains(t, body["error"], "invalid transition")
	})

	t.Run("denial maps to forbidden with reason", func(t *testing.T) {
		status, body := serve(t, func(c fiber.Ctx) error {
			return mapAppointmentError(c, &access.DeniedError{Reason: access.ReasonOwnershipMismatch})
		})
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "forbidden", body["error"])
		assert.Equal(t, string(access.ReasonOwnershipMismatch), body["reason"])
	})

	t.Run("missing record maps to not found", func(t *testing.T) {
		status, _ := serve(t, func(c fiber.Ctx) error {
			return mapAppointmentError(c, appointment.ErrNotFound)
		})
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}
