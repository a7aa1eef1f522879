package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/dok75/clinic_backend/internal/api/http/middleware"
	"github.com/dok75/clinic_backend/internal/service/file"
)

type FileHandler struct {
	svc file.Service
}

func NewFileHandler(svc file.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

// POST /api/v1/patients/:id/files  (multipart: "file" + optional fields)
func (h *FileHandler) Upload(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	patientID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file field is required")
	}

	req := file.AttachRequest{Description: c.FormValue("description")}
	if s := c.FormValue("visit_id"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return badRequest(c, "invalid visit_id")
		}
		id := uint(v)
		req.VisitID = &id
	}

	pf, err := h.svc.Upload(c.Context(), actor, patientID, fh, req)
	if err != nil {
		return mapFileError(c, err)
	}
	return created(c, pf)
}

// GET /api/v1/patients/:id/files
func (h *FileHandler) ListByPatient(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	patientID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	files, err := h.svc.ListByPatient(c.Context(), actor, patientID)
	if err != nil {
		return mapFileError(c, err)
	}
	return okResponse(c, files)
}

// GET /api/v1/files/:id/download
func (h *FileHandler) Download(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	url, err := h.svc.DownloadURL(c.Context(), actor, id)
	if err != nil {
		return mapFileError(c, err)
	}
	return okResponse(c, fiber.Map{"url": url})
}

// DELETE /api/v1/files/:id
func (h *FileHandler) Delete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromFiber(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapFileError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapFileError(c fiber.Ctx, err error) error {
	if d, isDenied := asDenied(err); isDenied {
		return deniedResponse(c, d)
	}
	switch {
	case errors.Is(err, file.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, file.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, file.ErrVisitNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, file.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
