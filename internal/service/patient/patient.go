package patient

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

type PaginatedResult[T any] struct {
	Data       []T
	Total      int64
	Page       int
	PerPage    int
	TotalPages int64
}

type ListRequest struct {
	Search  string // matches name, phone or patient number
	Page    int
	PerPage int
}

type CreateRequest struct {
	FullName       string
	Phone          string
	AlternatePhone string
	Email          string
	Age            *int
	Gender         string
	Address        string
	Medications    string
	Allergies      string
	ClinicID       uint
}

type UpdateRequest struct {
	FullName       *string
	Phone          *string
	AlternatePhone *string
	Email          *string
	Age            *int
	Gender         *string
	Address        *string
	Medications    *string
	Allergies      *string
	Documents      datatypes.JSON
}

// History is the rendered medical record of a patient.
type History struct {
	Patient *model.Patient       `json:"patient"`
	Entries []model.HistoryEntry `json:"entries"`
	Text    string               `json:"text"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Create registers a patient or, when an active patient with the same
	// case-folded name and normalized phone already exists in the clinic,
	// returns that record with existed=true instead of inserting a twin.
	Create(ctx context.Context, actor *model.User, req CreateRequest) (p *model.Patient, existed bool, err error)
	GetByID(ctx context.Context, actor *model.User, id uint) (*model.Patient, error)
	GetByNumber(ctx context.Context, actor *model.User, number string) (*model.Patient, error)
	List(ctx context.Context, actor *model.User, req ListRequest) (*PaginatedResult[*model.Patient], error)
	Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Patient, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	History(ctx context.Context, actor *model.User, id uint) (*History, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	db     *gorm.DB
	engine *access.Engine
}

func New(db *gorm.DB, engine *access.Engine) Service {
	return &patientService{db: db, engine: engine}
}

func (s *patientService) Create(ctx context.Context, actor *model.User, req CreateRequest) (*model.Patient, bool, error) {
	if req.FullName == "" {
		return nil, false, fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	if req.Phone == "" {
		return nil, false, fmt.Errorf("%w: phone is required", ErrValidation)
	}

	clinicID := s.engine.Scope().ResourceClinic(req.ClinicID)
	if clinicID == 0 {
		if c := s.engine.Scope().ClinicOf(actor); c != nil {
			clinicID = *c
		}
	}
	if clinicID == 0 {
		return nil, false, fmt.Errorf("%w: clinic_id is required", ErrValidation)
	}

	if err := s.engine.CanCreatePatient(actor, clinicID).Err(); err != nil {
		return nil, false, err
	}

	phone := NormalizePhone(req.Phone)

	patient := &model.Patient{
		FullName:       req.FullName,
		Phone:          phone,
		AlternatePhone: req.AlternatePhone,
		Email:          req.Email,
		Age:            req.Age,
		Gender:         req.Gender,
		Address:        req.Address,
		Medications:    req.Medications,
		Allergies:      req.Allergies,
		ClinicID:       clinicID,
		CreatedBy:      actor.ID,
		IsActive:       true,
	}

	var existed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Identity key: case-folded name + normalized phone, per clinic.
		var existing model.Patient
		err := tx.Where(
			"clinic_id = ? AND phone = ? AND LOWER(full_name) = ? AND is_active = ?",
			clinicID, phone, patient.NormalizedName(), true,
		).First(&existing).Error
		switch {
		case err == nil:
			*patient = existing
			existed = true
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			// fall through to insert
		default:
			return fmt.Errorf("check duplicate patient: %w", err)
		}
		if err := tx.Create(patient).Error; err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return patient, existed, nil
}

func (s *patientService) GetByID(ctx context.Context, actor *model.User, id uint) (*model.Patient, error) {
	var p model.Patient
	err := s.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return s.authorizeRead(ctx, actor, &p)
}

func (s *patientService) GetByNumber(ctx context.Context, actor *model.User, number string) (*model.Patient, error) {
	var p model.Patient
	err := s.db.WithContext(ctx).Where("patient_number = ?", number).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return s.authorizeRead(ctx, actor, &p)
}

func (s *patientService) List(ctx context.Context, actor *model.User, req ListRequest) (*PaginatedResult[*model.Patient], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	q := s.db.WithContext(ctx).Model(&model.Patient{}).
		Scopes(s.engine.PatientScope(actor)).
		Where("patients.is_active = ?", true)

	if req.Search != "" {
		like := "%" + req.Search + "%"
		q = q.Where(
			"LOWER(patients.full_name) LIKE LOWER(?) OR patients.phone LIKE ? OR patients.patient_number LIKE ?",
			like, "%"+NormalizePhone(req.Search)+"%", like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	var patients []*model.Patient
	err := q.Order("created_at DESC").Offset(offset).Limit(req.PerPage).Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	perPage := int64(req.PerPage)
	return &PaginatedResult[*model.Patient]{
		Data:       patients,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

func (s *patientService) Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Patient, error) {
	var p model.Patient
	err := s.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}

	dec, err := s.engine.CanUpdatePatient(ctx, actor, &p)
	if err != nil {
		return nil, err
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FullName != nil {
		if *req.FullName == "" {
			return nil, fmt.Errorf("%w: full_name cannot be empty", ErrValidation)
		}
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		if *req.Phone == "" {
			return nil, fmt.Errorf("%w: phone cannot be empty", ErrValidation)
		}
		updates["phone"] = NormalizePhone(*req.Phone)
	}
	if req.AlternatePhone != nil {
		updates["alternate_phone"] = *req.AlternatePhone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Age != nil {
		updates["age"] = *req.Age
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Medications != nil {
		updates["medications"] = *req.Medications
	}
	if req.Allergies != nil {
		updates["allergies"] = *req.Allergies
	}
	if req.Documents != nil {
		updates["documents"] = req.Documents
	}
	if len(updates) == 0 {
		return &p, nil
	}

	if err := s.db.WithContext(ctx).Model(&p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return &p, nil
}

// Delete deactivates the record; the clinical trail behind it stays.
func (s *patientService) Delete(ctx context.Context, actor *model.User, id uint) error {
	var p model.Patient
	err := s.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get patient: %w", err)
	}
	if err := s.engine.CanDeletePatient(actor).Err(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&p).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate patient: %w", err)
	}
	return nil
}

func (s *patientService) History(ctx context.Context, actor *model.User, id uint) (*History, error) {
	p, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var entries []model.HistoryEntry
	err = s.db.WithContext(ctx).
		Where("patient_id = ?", p.ID).
		Order("recorded_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	return &History{
		Patient: p,
		Entries: entries,
		Text:    model.RenderHistory(entries),
	}, nil
}

func (s *patientService) authorizeRead(ctx context.Context, actor *model.User, p *model.Patient) (*model.Patient, error) {
	dec, err := s.engine.CanReadPatient(ctx, actor, p)
	if err != nil {
		return nil, err
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
