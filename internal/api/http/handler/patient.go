package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"gorm.io/datatypes"

	"github.com/dok75/clinic_backend/internal/api/http/middleware"
	"github.com/dok75/clinic_backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

// GET /api/v1/patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var q struct {
		Search  string `query:"search"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	result, err := h.svc.List(c.Context(), actor, patient.ListRequest{
		Search:  q.Search,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return mapPatientError(c, err)
	}

	return c.JSON(fiber.Map{
		"data": result.Data,
		"meta": fiber.Map{
			"total":       result.Total,
			"page":        result.Page,
			"per_page":    result.PerPage,
			"total_pages": result.TotalPages,
		},
	})
}

// GET /api/v1/patients/:id
func (h *PatientHandler) GetByID(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	p, err := h.svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return mapPatientError(c, err)
	}
	return okResponse(c, p)
}

// GET /api/v1/patients/number/:number
func (h *PatientHandler) GetByNumber(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	number := c.Params("number")
	if number == "" {
		return badRequest(c, "patient number is required")
	}

	p, err := h.svc.GetByNumber(c.Context(), actor, number)
	if err != nil {
		return mapPatientError(c, err)
	}
	return okResponse(c, p)
}

// POST /api/v1/patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var body struct {
		FullName       string `json:"full_name"`
		Phone          string `json:"phone"`
		AlternatePhone string `json:"alternate_phone"`
		Email          string `json:"email"`
		Age            *int   `json:"age"`
		Gender         string `json:"gender"`
		Address        string `json:"address"`
		Medications    string `json:"medications"`
		Allergies      string `json:"allergies"`
		ClinicID       uint   `json:"clinic_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, existed, err := h.svc.Create(c.Context(), actor, patient.CreateRequest{
		FullName:       body.FullName,
		Phone:          body.Phone,
		AlternatePhone: body.AlternatePhone,
		Email:          body.Email,
		Age:            body.Age,
		Gender:         body.Gender,
		Address:        body.Address,
		Medications:    body.Medications,
		Allergies:      body.Allergies,
		ClinicID:       body.ClinicID,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	if existed {
		// Duplicate identity: hand back the existing record instead of a twin.
		return okResponse(c, p)
	}
	return created(c, p)
}

// PATCH /api/v1/patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		FullName       *string        `json:"full_name"`
		Phone          *string        `json:"phone"`
		AlternatePhone *string        `json:"alternate_phone"`
		Email          *string        `json:"email"`
		Age            *int           `json:"age"`
		Gender         *string        `json:"gender"`
		Address        *string        `json:"address"`
		Medications    *string        `json:"medications"`
		Allergies      *string        `json:"allergies"`
		Documents      datatypes.JSON `json:"documents"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Update(c.Context(), actor, id, patient.UpdateRequest{
		FullName:       body.FullName,
		Phone:          body.Phone,
		AlternatePhone: body.AlternatePhone,
		Email:          body.Email,
		Age:            body.Age,
		Gender:         body.Gender,
		Address:        body.Address,
		Medications:    body.Medications,
		Allergies:      body.Allergies,
		Documents:      body.Documents,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return okResponse(c, p)
}

// DELETE /api/v1/patients/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapPatientError(c, err)
	}
	return noContent(c)
}

// GET /api/v1/patients/:id/history
func (h *PatientHandler) History(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	hist, err := h.svc.History(c.Context(), actor, id)
	if err != nil {
		return mapPatientError(c, err)
	}
	return okResponse(c, hist)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapPatientError(c fiber.Ctx, err error) error {
	if d, isDenied := asDenied(err); isDenied {
		return deniedResponse(c, d)
	}
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, patient.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
