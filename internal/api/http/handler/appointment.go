package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/datatypes"

	"github.com/dok75/clinic_backend/internal/api/http/middleware"
	"github.com/dok75/clinic_backend/internal/service/appointment"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// GET /api/v1/appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var q struct {
		Status  string `query:"status"`
		From    string `query:"from"`
		To      string `query:"to"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	req := appointment.ListRequest{
		DoctorID:  queryUint(c, "doctor_id"),
		PatientID: queryUint(c, "patient_id"),
		Page:      q.Page,
		PerPage:   q.PerPage,
	}
	if q.Status != "" {
		req.Status = &q.Status
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

	appts, err := h.svc.List(c.Context(), actor, req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okResponse(c, appts)
}

// GET /api/v1/appointments/today
func (h *AppointmentHandler) Today(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	appts, err := h.svc.Today(c.Context(), actor)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okResponse(c, appts)
}

// GET /api/v1/appointments/stats
func (h *AppointmentHandler) Stats(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	stats, err := h.svc.Stats(c.Context(), actor)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okResponse(c, stats)
}

// GET /api/v1/appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	appt, err := h.svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okResponse(c, appt)
}

// POST /api/v1/appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var body struct {
		PatientID        uint      `json:"patient_id"`
		DoctorID         uint      `json:"doctor_id"`
		DepartmentID     *uint     `json:"department_id"`
		SpecializationID *uint     `json:"specialization_id"`
		AppointmentDate  time.Time `json:"appointment_date"`
		Status           string    `json:"status"`
		Notes            string    `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.PatientID == 0 || body.DoctorID == 0 {
		return badRequest(c, "patient_id and doctor_id are required")
	}

	appt, err := h.svc.Book(c.Context(), actor, appointment.BookRequest{
		PatientID:        body.PatientID,
		DoctorID:         body.DoctorID,
		DepartmentID:     body.DepartmentID,
		SpecializationID: body.SpecializationID,
		AppointmentDate:  body.AppointmentDate,
		Status:           body.Status,
		Notes:            body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, appt)
}

// PATCH /api/v1/appointments/:id
func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		DoctorID         *uint      `json:"doctor_id"`
		DepartmentID     *uint      `json:"department_id"`
		SpecializationID *uint      `json:"specialization_id"`
		AppointmentDate  *time.Time `json:"appointment_date"`
		Notes            *string    `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Update(c.Context(), actor, id, appointment.UpdateRequest{
		DoctorID:         body.DoctorID,
		DepartmentID:     body.DepartmentID,
		SpecializationID: body.SpecializationID,
		AppointmentDate:  body.AppointmentDate,
		Notes:            body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okResponse(c, appt)
}

// PATCH /api/v1/appointments/:id/status
func (h *AppointmentHandler) ChangeStatus(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Status == "" {
		return badRequest(c, "status is required")
	}

	appt, err := h.svc.ChangeStatus(c.Context(), actor, id, body.Status)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return okResponse(c, appt)
}

// PATCH /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.Cancel(c.Context(), actor, id); err != nil {
		return mapAppointmentError(c, err)
	}
	return noContent(c)
}

// POST /api/v1/appointments/:id/complete
func (h *AppointmentHandler) Complete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Complaint     string         `json:"complaint"`
		Diagnosis     string         `json:"diagnosis"`
		Treatment     string         `json:"treatment"`
		DoctorNotes   string         `json:"doctor_notes"`
		Prescriptions datatypes.JSON `json:"prescriptions"`
		Attachments   datatypes.JSON `json:"attachments"`
		VisitDate     *time.Time     `json:"visit_date"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	visit, err := h.svc.Complete(c.Context(), actor, id, appointment.CompleteRequest{
		Complaint:     body.Complaint,
		Diagnosis:     body.Diagnosis,
		Treatment:     body.Treatment,
		DoctorNotes:   body.DoctorNotes,
		Prescriptions: body.Prescriptions,
		Attachments:   body.Attachments,
		VisitDate:     body.VisitDate,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, visit)
}

// DELETE /api/v1/appointments/:id
func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapAppointmentError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapAppointmentError(c fiber.Ctx, err error) error {
	if d, isDenied := asDenied(err); isDenied {
		return deniedResponse(c, d)
	}
	var transition *appointment.InvalidTransitionError
	if errors.As(err, &transition) {
		return conflict(c, transition.Error())
	}
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrVisitExists):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
