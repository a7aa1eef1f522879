package questionnaire

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Sections maps questionnaire domains to their structured answers.
// Unknown domain keys are rejected.
type Sections map[string]datatypes.JSONMap

type CreateRequest struct {
	PatientID     uint
	AppointmentID *uint
	DepartmentID  *uint
	Sections      Sections
}

type UpdateRequest struct {
	Sections Sections
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor *model.User, req CreateRequest) (*model.Questionnaire, error)
	GetByID(ctx context.Context, actor *model.User, id uint) (*model.Questionnaire, error)
	ListByPatient(ctx context.Context, actor *model.User, patientID uint) ([]*model.Questionnaire, error)
	Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Questionnaire, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type questionnaireService struct {
	db     *gorm.DB
	engine *access.Engine
}

func New(db *gorm.DB, engine *access.Engine) Service {
	return &questionnaireService{db: db, engine: engine}
}

func (s *questionnaireService) Create(ctx context.Context, actor *model.User, req CreateRequest) (*model.Questionnaire, error) {
	if len(req.Sections) == 0 {
		return nil, fmt.Errorf("%w: at least one section is required", ErrValidation)
	}
	for domain := range req.Sections {
		if !model.ValidQuestionnaireDomain(domain) {
			return nil, fmt.Errorf("%w: unknown domain %q", ErrValidation, domain)
		}
	}

	var patient model.Patient
	if err := s.db.WithContext(ctx).First(&patient, req.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	doctorID := actor.ID
	if req.AppointmentID != nil {
		var appt model.Appointment
		if err := s.db.WithContext(ctx).First(&appt, *req.AppointmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAppointmentNotFound
			}
			return nil, fmt.Errorf("load appointment: %w", err)
		}
		if appt.PatientID != patient.ID {
			return nil, fmt.Errorf("%w: appointment belongs to another patient", ErrValidation)
		}
		doctorID = appt.DoctorID
	}

	if err := s.engine.CanCreateVisit(actor, doctorID).Err(); err != nil {
		return nil, err
	}

	q := &model.Questionnaire{
		PatientID:     patient.ID,
		DoctorID:      doctorID,
		DepartmentID:  req.DepartmentID,
		AppointmentID: req.AppointmentID,
		Nutrition:     req.Sections[model.QuestionnaireNutrition],
		Dentistry:     req.Sections[model.QuestionnaireDentistry],
		Laser:         req.Sections[model.QuestionnaireLaser],
		General:       req.Sections[model.QuestionnaireGeneral],
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.AppointmentID != nil {
			var n int64
			if err := tx.Model(&model.Questionnaire{}).
				Where("appointment_id = ?", *req.AppointmentID).Count(&n).Error; err != nil {
				return fmt.Errorf("check existing questionnaire: %w", err)
			}
			if n > 0 {
				return ErrAlreadyExists
			}
		}
		return tx.Create(q).Error
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *questionnaireService) GetByID(ctx context.Context, actor *model.User, id uint) (*model.Questionnaire, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *questionnaireService) ListByPatient(ctx context.Context, actor *model.User, patientID uint) ([]*model.Questionnaire, error) {
	var patient model.Patient
	if err := s.db.WithContext(ctx).First(&patient, patientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	dec, err := s.engine.CanReadPatient(ctx, actor, &patient)
	if err != nil {
		return nil, err
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	var qs []*model.Questionnaire
	err = s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&qs).Error
	if err != nil {
		return nil, fmt.Errorf("list questionnaires: %w", err)
	}
	return qs, nil
}

func (s *questionnaireService) Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Questionnaire, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Same ownership rule as the visit it accompanies.
	asVisit := &model.Visit{DoctorID: q.DoctorID}
	if err := s.engine.CanUpdateVisit(actor, asVisit).Err(); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	for domain, answers := range req.Sections {
		if !model.ValidQuestionnaireDomain(domain) {
			return nil, fmt.Errorf("%w: unknown domain %q", ErrValidation, domain)
		}
		updates[domain] = answers
	}
	if len(updates) == 0 {
		return q, nil
	}

	if err := s.db.WithContext(ctx).Model(q).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update questionnaire: %w", err)
	}
	return q, nil
}

func (s *questionnaireService) Delete(ctx context.Context, actor *model.User, id uint) error {
	q, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.CanDeleteVisit(actor).Err(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(q).Error; err != nil {
		return fmt.Errorf("delete questionnaire: %w", err)
	}
	return nil
}

func (s *questionnaireService) load(ctx context.Context, id uint) (*model.Questionnaire, error) {
	var q model.Questionnaire
	err := s.db.WithContext(ctx).Preload("Patient").First(&q, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get questionnaire: %w", err)
	}
	return &q, nil
}

func (s *questionnaireService) authorizeRead(ctx context.Context, actor *model.User, q *model.Questionnaire) error {
	if q.Patient == nil {
		var patient model.Patient
		if err := s.db.WithContext(ctx).First(&patient, q.PatientID).Error; err != nil {
			return fmt.Errorf("load patient: %w", err)
		}
		q.Patient = &patient
	}
	dec, err := s.engine.CanReadPatient(ctx, actor, q.Patient)
	if err != nil {
		return err
	}
	return dec.Err()
}
