package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	PatientID *uint
	DoctorID  *uint
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

// RecordRequest creates a walk-in visit with no appointment behind it.
// Appointment-backed visits are created by the appointment service at
// completion time.
type RecordRequest struct {
	PatientID     uint
	DoctorID      uint
	VisitDate     *time.Time // defaults to now
	Complaint     string
	Diagnosis     string
	Treatment     string
	DoctorNotes   string
	Prescriptions datatypes.JSON
	Attachments   datatypes.JSON
}

type UpdateRequest struct {
	Complaint     *string
	Treatment     *string
	DoctorNotes   *string
	Prescriptions datatypes.JSON
	Attachments   datatypes.JSON
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, actor *model.User, req ListRequest) ([]*model.Visit, error)
	GetByID(ctx context.Context, actor *model.User, id uint) (*model.Visit, error)
	Record(ctx context.Context, actor *model.User, req RecordRequest) (*model.Visit, error)
	Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Visit, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type visitService struct {
	db     *gorm.DB
	engine *access.Engine
}

func New(db *gorm.DB, engine *access.Engine) Service {
	return &visitService{db: db, engine: engine}
}

func (s *visitService) List(ctx context.Context, actor *model.User, req ListRequest) ([]*model.Visit, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	q := s.db.WithContext(ctx).Model(&model.Visit{}).
		Scopes(s.engine.VisitScope(actor))

	if req.PatientID != nil {
		q = q.Where("visits.patient_id = ?", *req.PatientID)
	}
	if req.DoctorID != nil {
		q = q.Where("visits.doctor_id = ?", *req.DoctorID)
	}
	if req.From != nil {
		q = q.Where("visits.visit_date >= ?", *req.From)
	}
	if req.To != nil {
		q = q.Where("visits.visit_date < ?", *req.To)
	}

	var visits []*model.Visit
	err := q.Order("visit_date DESC").
		Offset(offset).Limit(req.PerPage).
		Preload("Patient").Preload("Doctor").
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

func (s *visitService) GetByID(ctx context.Context, actor *model.User, id uint) (*model.Visit, error) {
	visit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dec, err := s.engine.CanReadVisit(ctx, actor, visit)
	if err != nil {
		return nil, err
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return visit, nil
}

// Record writes a walk-in visit and its history entry in one
// transaction. The roster link this creates is what later lets the
// doctor read the patient.
func (s *visitService) Record(ctx context.Context, actor *model.User, req RecordRequest) (*model.Visit, error) {
	if req.Diagnosis == "" {
		return nil, fmt.Errorf("%w: diagnosis is required", ErrValidation)
	}

	var patient model.Patient
	if err := s.db.WithContext(ctx).First(&patient, req.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if err := s.engine.CanCreateVisit(actor, req.DoctorID).Err(); err != nil {
		return nil, err
	}

	visitDate := time.Now()
	if req.VisitDate != nil {
		visitDate = *req.VisitDate
	}

	visit := &model.Visit{
		PatientID:     patient.ID,
		DoctorID:      req.DoctorID,
		ClinicID:      patient.ClinicID,
		VisitDate:     visitDate,
		Complaint:     req.Complaint,
		Diagnosis:     req.Diagnosis,
		Treatment:     req.Treatment,
		DoctorNotes:   req.DoctorNotes,
		Prescriptions: req.Prescriptions,
		Attachments:   req.Attachments,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(visit).Error; err != nil {
			return fmt.Errorf("create visit: %w", err)
		}
		entry := &model.HistoryEntry{
			PatientID:  patient.ID,
			VisitID:    &visit.ID,
			RecordedAt: visitDate,
			Diagnosis:  req.Diagnosis,
			Notes:      req.DoctorNotes,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("record history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// Update amends the narrative fields of a visit. Diagnosis is immutable
// once written: the history line derived from it has already been
// prepended to the patient record.
func (s *visitService) Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Visit, error) {
	visit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CanUpdateVisit(actor, visit).Err(); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Complaint != nil {
		updates["complaint"] = *req.Complaint
	}
	if req.Treatment != nil {
		updates["treatment"] = *req.Treatment
	}
	if req.DoctorNotes != nil {
		updates["doctor_notes"] = *req.DoctorNotes
	}
	if req.Prescriptions != nil {
		updates["prescriptions"] = req.Prescriptions
	}
	if req.Attachments != nil {
		updates["attachments"] = req.Attachments
	}
	if len(updates) == 0 {
		return visit, nil
	}

	if err := s.db.WithContext(ctx).Model(visit).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update visit: %w", err)
	}
	return visit, nil
}

func (s *visitService) Delete(ctx context.Context, actor *model.User, id uint) error {
	visit, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.CanDeleteVisit(actor).Err(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(visit).Error; err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	return nil
}

func (s *visitService) load(ctx context.Context, id uint) (*model.Visit, error) {
	var visit model.Visit
	err := s.db.WithContext(ctx).
		Preload("Patient").Preload("Doctor").
		First(&visit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return &visit, nil
}
