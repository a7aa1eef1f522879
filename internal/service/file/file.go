package file

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
	s3pkg "github.com/dok75/clinic_backend/pkg/s3"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type AttachRequest struct {
	VisitID     *uint
	Description string
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Upload(ctx context.Context, actor *model.User, patientID uint, fh *multipart.FileHeader, req AttachRequest) (*model.PatientFile, error)
	ListByPatient(ctx context.Context, actor *model.User, patientID uint) ([]*model.PatientFile, error)
	DownloadURL(ctx context.Context, actor *model.User, fileID uint) (string, error)
	Delete(ctx context.Context, actor *model.User, fileID uint) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type fileService struct {
	db     *gorm.DB
	engine *access.Engine
	s3     *s3pkg.Client
}

func New(db *gorm.DB, engine *access.Engine, s3Client *s3pkg.Client) Service {
	return &fileService{db: db, engine: engine, s3: s3Client}
}

func (s *fileService) Upload(ctx context.Context, actor *model.User, patientID uint, fh *multipart.FileHeader, req AttachRequest) (*model.PatientFile, error) {
	if fh == nil || fh.Size == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrValidation)
	}

	patient, err := s.loadPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	dec, err := s.engine.CanUpdatePatient(ctx, actor, patient)
	if err != nil {
		return nil, err
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	if req.VisitID != nil {
		var visit model.Visit
		if err := s.db.WithContext(ctx).First(&visit, *req.VisitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrVisitNotFound
			}
			return nil, fmt.Errorf("load visit: %w", err)
		}
		if visit.PatientID != patient.ID {
			return nil, fmt.Errorf("%w: visit belongs to another patient", ErrValidation)
		}
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	key := fmt.Sprintf("patients/%d/%s%s", patient.ClinicID, uuid.New(), ext)

	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}

	if err := s.s3.Upload(ctx, key, mime, src, fh.Size); err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	pf := &model.PatientFile{
		PatientID:   patient.ID,
		ClinicID:    patient.ClinicID,
		VisitID:     req.VisitID,
		FileKey:     key,
		FileName:    fh.Filename,
		FileSize:    fh.Size,
		MimeType:    mime,
		Description: req.Description,
		UploadedBy:  actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(pf).Error; err != nil {
		return nil, fmt.Errorf("create patient file: %w", err)
	}
	return pf, nil
}

func (s *fileService) ListByPatient(ctx context.Context, actor *model.User, patientID uint) ([]*model.PatientFile, error) {
	patient, err := s.loadPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	dec, err := s.engine.CanReadPatient(ctx, actor, patient)
	if err != nil {
		return nil, err
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	var files []*model.PatientFile
	err = s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list patient files: %w", err)
	}
	return files, nil
}

func (s *fileService) DownloadURL(ctx context.Context, actor *model.User, fileID uint) (string, error) {
	pf, err := s.load(ctx, fileID)
	if err != nil {
		return "", err
	}
	dec, err := s.engine.CanReadPatient(ctx, actor, pf.Patient)
	if err != nil {
		return "", err
	}
	if err := dec.Err(); err != nil {
		return "", err
	}
	return s.s3.PresignDownload(ctx, pf.FileKey)
}

func (s *fileService) Delete(ctx context.Context, actor *model.User, fileID uint) error {
	pf, err := s.load(ctx, fileID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleAdmin && pf.UploadedBy != actor.ID {
		return (&access.DeniedError{Reason: access.ReasonOwnershipMismatch})
	}
	if err := s.s3.Delete(ctx, pf.FileKey); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(pf).Error; err != nil {
		return fmt.Errorf("delete patient file: %w", err)
	}
	return nil
}

func (s *fileService) load(ctx context.Context, id uint) (*model.PatientFile, error) {
	var pf model.PatientFile
	err := s.db.WithContext(ctx).Preload("Patient").First(&pf, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient file: %w", err)
	}
	return &pf, nil
}

func (s *fileService) loadPatient(ctx context.Context, id uint) (*model.Patient, error) {
	var patient model.Patient
	if err := s.db.WithContext(ctx).First(&patient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return &patient, nil
}
