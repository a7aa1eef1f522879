package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/service/clinic"
)

type ClinicHandler struct {
	svc clinic.Service
}

func NewClinicHandler(svc clinic.Service) *ClinicHandler {
	return &ClinicHandler{svc: svc}
}

// ---------------------------------------------------------------------------
// Clinics
// ---------------------------------------------------------------------------

// GET /api/v1/clinics
func (h *ClinicHandler) ListClinics(c fiber.Ctx) error {
	clinics, err := h.svc.ListClinics(c.Context())
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, clinics)
}

// GET /api/v1/clinics/:id
func (h *ClinicHandler) GetClinic(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	cl, err := h.svc.GetClinic(c.Context(), id)
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, cl)
}

// POST /api/v1/clinics
func (h *ClinicHandler) CreateClinic(c fiber.Ctx) error {
	var body struct {
		Name        string `json:"name"`
		Address     string `json:"address"`
		Phone       string `json:"phone"`
		Email       string `json:"email"`
		Logo        string `json:"logo"`
		Description string `json:"description"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	cl, err := h.svc.CreateClinic(c.Context(), clinic.CreateClinicRequest{
		Name:        body.Name,
		Address:     body.Address,
		Phone:       body.Phone,
		Email:       body.Email,
		Logo:        body.Logo,
		Description: body.Description,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return created(c, cl)
}

// PATCH /api/v1/clinics/:id
func (h *ClinicHandler) UpdateClinic(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Name        *string `json:"name"`
		Address     *string `json:"address"`
		Phone       *string `json:"phone"`
		Email       *string `json:"email"`
		Logo        *string `json:"logo"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	cl, err := h.svc.UpdateClinic(c.Context(), id, clinic.UpdateClinicRequest{
		Name:        body.Name,
		Address:     body.Address,
		Phone:       body.Phone,
		Email:       body.Email,
		Logo:        body.Logo,
		Description: body.Description,
		IsActive:    body.IsActive,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, cl)
}

// DELETE /api/v1/clinics/:id
func (h *ClinicHandler) DeleteClinic(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.DeleteClinic(c.Context(), id); err != nil {
		return mapClinicError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Departments
// ---------------------------------------------------------------------------

// GET /api/v1/departments
func (h *ClinicHandler) ListDepartments(c fiber.Ctx) error {
	deps, err := h.svc.ListDepartments(c.Context(), queryUint(c, "clinic_id"))
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, deps)
}

// POST /api/v1/departments
func (h *ClinicHandler) CreateDepartment(c fiber.Ctx) error {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		ClinicID    uint   `json:"clinic_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	d, err := h.svc.CreateDepartment(c.Context(), clinic.CreateDepartmentRequest{
		Name:        body.Name,
		Description: body.Description,
		Icon:        body.Icon,
		ClinicID:    body.ClinicID,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return created(c, d)
}

// PATCH /api/v1/departments/:id
func (h *ClinicHandler) UpdateDepartment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Icon        *string `json:"icon"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	d, err := h.svc.UpdateDepartment(c.Context(), id, clinic.UpdateDepartmentRequest{
		Name:        body.Name,
		Description: body.Description,
		Icon:        body.Icon,
		IsActive:    body.IsActive,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, d)
}

// DELETE /api/v1/departments/:id
func (h *ClinicHandler) DeleteDepartment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.DeleteDepartment(c.Context(), id); err != nil {
		return mapClinicError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Specializations
// ---------------------------------------------------------------------------

// GET /api/v1/specializations
func (h *ClinicHandler) ListSpecializations(c fiber.Ctx) error {
	sps, err := h.svc.ListSpecializations(c.Context(), queryUint(c, "department_id"))
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, sps)
}

// POST /api/v1/specializations
func (h *ClinicHandler) CreateSpecialization(c fiber.Ctx) error {
	var body struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		DepartmentID uint   `json:"department_id"`
		PriceRange   string `json:"price_range"`
		Duration     int    `json:"duration"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	sp, err := h.svc.CreateSpecialization(c.Context(), clinic.CreateSpecializationRequest{
		Name:         body.Name,
		Description:  body.Description,
		DepartmentID: body.DepartmentID,
		PriceRange:   body.PriceRange,
		Duration:     body.Duration,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return created(c, sp)
}

// PATCH /api/v1/specializations/:id
func (h *ClinicHandler) UpdateSpecialization(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		PriceRange  *string `json:"price_range"`
		Duration    *int    `json:"duration"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	sp, err := h.svc.UpdateSpecialization(c.Context(), id, clinic.UpdateSpecializationRequest{
		Name:        body.Name,
		Description: body.Description,
		PriceRange:  body.PriceRange,
		Duration:    body.Duration,
		IsActive:    body.IsActive,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, sp)
}

// DELETE /api/v1/specializations/:id
func (h *ClinicHandler) DeleteSpecialization(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.DeleteSpecialization(c.Context(), id); err != nil {
		return mapClinicError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Treatments
// ---------------------------------------------------------------------------

// GET /api/v1/treatments
func (h *ClinicHandler) ListTreatments(c fiber.Ctx) error {
	trs, err := h.svc.ListTreatments(c.Context(), queryUint(c, "clinic_id"), queryUint(c, "department_id"))
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, trs)
}

// POST /api/v1/treatments
func (h *ClinicHandler) CreateTreatment(c fiber.Ctx) error {
	var body struct {
		Name             string  `json:"name"`
		Description      string  `json:"description"`
		Price            float64 `json:"price"`
		Duration         int     `json:"duration"`
		DepartmentID     uint    `json:"department_id"`
		SpecializationID *uint   `json:"specialization_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tr, err := h.svc.CreateTreatment(c.Context(), clinic.CreateTreatmentRequest{
		Name:             body.Name,
		Description:      body.Description,
		Price:            body.Price,
		Duration:         body.Duration,
		DepartmentID:     body.DepartmentID,
		SpecializationID: body.SpecializationID,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return created(c, tr)
}

// PATCH /api/v1/treatments/:id
func (h *ClinicHandler) UpdateTreatment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Duration    *int     `json:"duration"`
		IsActive    *bool    `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tr, err := h.svc.UpdateTreatment(c.Context(), id, clinic.UpdateTreatmentRequest{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Duration:    body.Duration,
		IsActive:    body.IsActive,
	})
	if err != nil {
		return mapClinicError(c, err)
	}
	return okResponse(c, tr)
}

// DELETE /api/v1/treatments/:id
func (h *ClinicHandler) DeleteTreatment(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.DeleteTreatment(c.Context(), id); err != nil {
		return mapClinicError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapClinicError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, clinic.ErrClinicNotFound),
		errors.Is(err, clinic.ErrDepartmentNotFound),
		errors.Is(err, clinic.ErrSpecializationNotFound),
		errors.Is(err, clinic.ErrTreatmentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, clinic.ErrNameExists):
		return conflict(c, err.Error())
	case errors.Is(err, clinic.ErrHasDependents):
		return conflict(c, err.Error())
	case errors.Is(err, clinic.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
