package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/middleware"
	"github.com/dok75/clinic_backend/internal/service/user"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GET /api/v1/users
func (h *UserHandler) List(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var q struct {
		Role    string `query:"role"`
		Search  string `query:"search"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	req := user.ListRequest{
		Search:   q.Search,
		ClinicID: queryUint(c, "clinic_id"),
		Page:     q.Page,
		PerPage:  q.PerPage,
	}
	if q.Role != "" {
		req.Role = &q.Role
	}

	users, err := h.svc.List(c.Context(), actor, req)
	if err != nil {
		return mapUserError(c, err)
	}
	return okResponse(c, users)
}

// GET /api/v1/users/:id
func (h *UserHandler) GetByID(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	u, err := h.svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return mapUserError(c, err)
	}
	return okResponse(c, u)
}

// POST /api/v1/users
func (h *UserHandler) Create(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}

	var body struct {
		Username         string `json:"username"`
		FullName         string `json:"full_name"`
		Role             string `json:"role"`
		Phone            string `json:"phone"`
		Email            string `json:"email"`
		Password         string `json:"password"`
		ClinicID         *uint  `json:"clinic_id"`
		DepartmentID     *uint  `json:"department_id"`
		SpecializationID *uint  `json:"specialization_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	u, err := h.svc.Create(c.Context(), actor, user.CreateRequest{
		Username:         body.Username,
		FullName:         body.FullName,
		Role:             body.Role,
		Phone:            body.Phone,
		Email:            body.Email,
		Password:         body.Password,
		ClinicID:         body.ClinicID,
		DepartmentID:     body.DepartmentID,
		SpecializationID: body.SpecializationID,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return created(c, u)
}

// PATCH /api/v1/users/:id
func (h *UserHandler) Update(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var body struct {
		FullName         *string `json:"full_name"`
		Role             *string `json:"role"`
		Phone            *string `json:"phone"`
		Email            *string `json:"email"`
		ClinicID         *uint   `json:"clinic_id"`
		DepartmentID     *uint   `json:"department_id"`
		SpecializationID *uint   `json:"specialization_id"`
		IsActive         *bool   `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	u, err := h.svc.Update(c.Context(), actor, id, user.UpdateRequest{
		FullName:         body.FullName,
		Role:             body.Role,
		Phone:            body.Phone,
		Email:            body.Email,
		ClinicID:         body.ClinicID,
		DepartmentID:     body.DepartmentID,
		SpecializationID: body.SpecializationID,
		IsActive:         body.IsActive,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return okResponse(c, u)
}

// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapUserError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapUserError(c fiber.Ctx, err error) error {
	if d, isDenied := asDenied(err); isDenied {
		return deniedResponse(c, d)
	}
	switch {
	case errors.Is(err, user.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, user.ErrUsernameExists):
		return conflict(c, err.Error())
	case errors.Is(err, user.ErrLastAdmin):
		return conflict(c, err.Error())
	case errors.Is(err, user.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
