package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"gorm.io/datatypes"

	"github.com/dok75/clinic_backend/internal/api/http/middleware"
	"github.com/dok75/clinic_backend/internal/service/questionnaire"
)

type QuestionnaireHandler struct {
	svc questionnaire.Service
}

func NewQuestionnaireHandler(svc questionnaire.Service) *QuestionnaireHandler {
	return &QuestionnaireHandler{svc: svc}
}

// POST /api/v1/questionnaires
func (h *QuestionnaireHandler) Create(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var body struct {
		PatientID     uint                          `json:"patient_id"`
		AppointmentID *uint                         `json:"appointment_id"`
		DepartmentID  *uint                         `json:"department_id"`
		Sections      map[string]datatypes.JSONMap  `json:"sections"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.PatientID == 0 {
		return badRequest(c, "patient_id is required")
	}

	q, err := h.svc.Create(c.Context(), actor, questionnaire.CreateRequest{
		PatientID:     body.PatientID,
		AppointmentID: body.AppointmentID,
		DepartmentID:  body.DepartmentID,
		Sections:      body.Sections,
	})
	if err != nil {
		return mapQuestionnaireError(c, err)
	}
	return created(c, q)
}

// GET /api/v1/questionnaires/:id
func (h *QuestionnaireHandler) GetByID(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	q, err := h.svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return mapQuestionnaireError(c, err)
	}
	return okResponse(c, q)
}

// GET /api/v1/patients/:id/questionnaires
func (h *QuestionnaireHandler) ListByPatient(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	patientID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	qs, err := h.svc.ListByPatient(c.Context(), actor, patientID)
	if err != nil {
		return mapQuestionnaireError(c, err)
	}
	return okResponse(c, qs)
}

// PATCH /api/v1/questionnaires/:id
func (h *QuestionnaireHandler) Update(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Sections map[string]datatypes.JSONMap `json:"sections"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	q, err := h.svc.Update(c.Context(), actor, id, questionnaire.UpdateRequest{
		Sections: body.Sections,
	})
	if err != nil {
		return mapQuestionnaireError(c, err)
	}
	return okResponse(c, q)
}

// DELETE /api/v1/questionnaires/:id
func (h *QuestionnaireHandler) Delete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapQuestionnaireError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapQuestionnaireError(c fiber.Ctx, err error) error {
	if d, isDenied := asDenied(err); isDenied {
		return deniedResponse(c, d)
	}
	switch {
	case errors.Is(err, questionnaire.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, questionnaire.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, questionnaire.ErrAppointmentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, questionnaire.ErrAlreadyExists):
		return conflict(c, err.Error())
	case errors.Is(err, questionnaire.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
