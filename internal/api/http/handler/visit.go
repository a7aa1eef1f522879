package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/datatypes"

	"github.com/dok75/clinic_backend/internal/api/http/middleware"
	"github.com/dok75/clinic_backend/internal/service/visit"
)

type VisitHandler struct {
	svc visit.Service
}

func NewVisitHandler(svc visit.Service) *VisitHandler {
	return &VisitHandler{svc: svc}
}

// GET /api/v1/visits
func (h *VisitHandler) List(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var q struct {
		From    string `query:"from"`
		To      string `query:"to"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	req := visit.ListRequest{
		PatientID: queryUint(c, "patient_id"),
		DoctorID:  queryUint(c, "doctor_id"),
		Page:      q.Page,
		PerPage:   q.PerPage,
	}
	if q.From != "" {
		if t, err := time.Parse(time.RFC3339, q.From); err == nil {
			req.From = &t
		}
	}
	if q.To != "" {
		if t, err := time.Parse(time.RFC3339, q.To); err == nil {
			req.To = &t
		}
	}

	visits, err := h.svc.List(c.Context(), actor, req)
	if err != nil {
		return mapVisitError(c, err)
	}
	return okResponse(c, visits)
}

// GET /api/v1/visits/:id
func (h *VisitHandler) GetByID(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	v, err := h.svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return mapVisitError(c, err)
	}
	return okResponse(c, v)
}

// POST /api/v1/visits  (walk-in, no appointment)
func (h *VisitHandler) Record(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var body struct {
		PatientID     uint           `json:"patient_id"`
		DoctorID      uint           `json:"doctor_id"`
		VisitDate     *time.Time     `json:"visit_date"`
		Complaint     string         `json:"complaint"`
		Diagnosis     string         `json:"diagnosis"`
		Treatment     string         `json:"treatment"`
		DoctorNotes   string         `json:"doctor_notes"`
		Prescriptions datatypes.JSON `json:"prescriptions"`
		Attachments   datatypes.JSON `json:"attachments"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.PatientID == 0 {
		return badRequest(c, "patient_id is required")
	}
	if body.DoctorID == 0 {
		body.DoctorID = actor.ID
	}

	v, err := h.svc.Record(c.Context(), actor, visit.RecordRequest{
		PatientID:     body.PatientID,
		DoctorID:      body.DoctorID,
		VisitDate:     body.VisitDate,
		Complaint:     body.Complaint,
		Diagnosis:     body.Diagnosis,
		Treatment:     body.Treatment,
		DoctorNotes:   body.DoctorNotes,
		Prescriptions: body.Prescriptions,
		Attachments:   body.Attachments,
	})
	if err != nil {
		return mapVisitError(c, err)
	}
	return created(c, v)
}

// PATCH /api/v1/visits/:id
func (h *VisitHandler) Update(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Complaint     *string        `json:"complaint"`
		Treatment     *string        `json:"treatment"`
		DoctorNotes   *string        `json:"doctor_notes"`
		Prescriptions datatypes.JSON `json:"prescriptions"`
		Attachments   datatypes.JSON `json:"attachments"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	v, err := h.svc.Update(c.Context(), actor, id, visit.UpdateRequest{
		Complaint:     body.Complaint,
		Treatment:     body.Treatment,
		DoctorNotes:   body.DoctorNotes,
		Prescriptions: body.Prescriptions,
		Attachments:   body.Attachments,
	})
	if err != nil {
		return mapVisitError(c, err)
	}
	return okResponse(c, v)
}

// DELETE /api/v1/visits/:id
func (h *VisitHandler) Delete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapVisitError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapVisitError(c fiber.Ctx, err error) error {
	if d, isDenied := asDenied(err); isDenied {
		return deniedResponse(c, d)
	}
	switch {
	case errors.Is(err, visit.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, visit.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, visit.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
