package clinic

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/model"
)

// The directory is reference data: every authenticated role reads it,
// only admins write it. Role gating happens at the route layer; this
// service owns validation and referential integrity.

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateClinicRequest struct {
	Name        string
	Address     string
	Phone       string
	Email       string
	Logo        string
	Description string
}

type UpdateClinicRequest struct {
	Name        *string
	Address     *string
	Phone       *string
	Email       *string
	Logo        *string
	Description *string
	IsActive    *bool
}

type CreateDepartmentRequest struct {
	Name        string
	Description string
	Icon        string
	ClinicID    uint
}

type UpdateDepartmentRequest struct {
	Name        *string
	Description *string
	Icon        *string
	IsActive    *bool
}

type CreateSpecializationRequest struct {
	Name         string
	Description  string
	DepartmentID uint
	PriceRange   string
	Duration     int
}

type UpdateSpecializationRequest struct {
	Name        *string
	Description *string
	PriceRange  *string
	Duration    *int
	IsActive    *bool
}

type CreateTreatmentRequest struct {
	Name             string
	Description      string
	Price            float64
	Duration         int
	DepartmentID     uint
	SpecializationID *uint
}

type UpdateTreatmentRequest struct {
	Name        *string
	Description *string
	Price       *float64
	Duration    *int
	IsActive    *bool
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	ListClinics(ctx context.Context) ([]*model.Clinic, error)
	GetClinic(ctx context.Context, id uint) (*model.Clinic, error)
	CreateClinic(ctx context.Context, req CreateClinicRequest) (*model.Clinic, error)
	UpdateClinic(ctx context.Context, id uint, req UpdateClinicRequest) (*model.Clinic, error)
	DeleteClinic(ctx context.Context, id uint) error

	ListDepartments(ctx context.Context, clinicID *uint) ([]*model.Department, error)
	CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*model.Department, error)
	UpdateDepartment(ctx context.Context, id uint, req UpdateDepartmentRequest) (*model.Department, error)
	DeleteDepartment(ctx context.Context, id uint) error

	ListSpecializations(ctx context.Context, departmentID *uint) ([]*model.Specialization, error)
	CreateSpecialization(ctx context.Context, req CreateSpecializationRequest) (*model.Specialization, error)
	UpdateSpecialization(ctx context.Context, id uint, req UpdateSpecializationRequest) (*model.Specialization, error)
	DeleteSpecialization(ctx context.Context, id uint) error

	ListTreatments(ctx context.Context, clinicID, departmentID *uint) ([]*model.Treatment, error)
	CreateTreatment(ctx context.Context, req CreateTreatmentRequest) (*model.Treatment, error)
	UpdateTreatment(ctx context.Context, id uint, req UpdateTreatmentRequest) (*model.Treatment, error)
	DeleteTreatment(ctx context.Context, id uint) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type clinicService struct {
	db *gorm.DB
}

func New(db *gorm.DB) Service {
	return &clinicService{db: db}
}

// ---------------------------------------------------------------------------
// Clinics
// ---------------------------------------------------------------------------

func (s *clinicService) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	var clinics []*model.Clinic
	err := s.db.WithContext(ctx).Order("name ASC").Find(&clinics).Error
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	return clinics, nil
}

func (s *clinicService) GetClinic(ctx context.Context, id uint) (*model.Clinic, error) {
	var c model.Clinic
	err := s.db.WithContext(ctx).Preload("Departments").First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClinicNotFound
		}
		return nil, fmt.Errorf("get clinic: %w", err)
	}
	return &c, nil
}

func (s *clinicService) CreateClinic(ctx context.Context, req CreateClinicRequest) (*model.Clinic, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	c := &model.Clinic{
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Logo:        req.Logo,
		Description: req.Description,
		IsActive:    true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Clinic{}).Where("name = ?", req.Name).Count(&n).Error; err != nil {
			return fmt.Errorf("check clinic name: %w", err)
		}
		if n > 0 {
			return ErrNameExists
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *clinicService) UpdateClinic(ctx context.Context, id uint, req UpdateClinicRequest) (*model.Clinic, error) {
	c, err := s.GetClinic(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Logo != nil {
		updates["logo"] = *req.Logo
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return c, nil
	}

	if err := s.db.WithContext(ctx).Model(c).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update clinic: %w", err)
	}
	return c, nil
}

// DeleteClinic refuses while any department, staff member or patient
// still references the clinic. Deleting a clinic never cascades into
// care records.
func (s *clinicService) DeleteClinic(ctx context.Context, id uint) error {
	c, err := s.GetClinic(ctx, id)
	if err != nil {
		return err
	}

	checks := []struct {
		name  string
		model any
		query string
	}{
		{"departments", &model.Department{}, "clinic_id = ?"},
		{"users", &model.User{}, "clinic_id = ?"},
		{"patients", &model.Patient{}, "clinic_id = ?"},
		{"appointments", &model.Appointment{}, "clinic_id = ?"},
	}
	for _, chk := range checks {
		var n int64
		if err := s.db.WithContext(ctx).Model(chk.model).Where(chk.query, id).Count(&n).Error; err != nil {
			return fmt.Errorf("count %s: %w", chk.name, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: clinic has %s", ErrHasDependents, chk.name)
		}
	}

	if err := s.db.WithContext(ctx).Delete(c).Error; err != nil {
		return fmt.Errorf("delete clinic: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Departments
// ---------------------------------------------------------------------------

func (s *clinicService) ListDepartments(ctx context.Context, clinicID *uint) ([]*model.Department, error) {
	q := s.db.WithContext(ctx).Model(&model.Department{})
	if clinicID != nil {
		q = q.Where("clinic_id = ?", *clinicID)
	}
	var departments []*model.Department
	err := q.Order("name ASC").Preload("Specializations").Find(&departments).Error
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

func (s *clinicService) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*model.Department, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := s.GetClinic(ctx, req.ClinicID); err != nil {
		return nil, err
	}

	d := &model.Department{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		ClinicID:    req.ClinicID,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}
	return d, nil
}

func (s *clinicService) UpdateDepartment(ctx context.Context, id uint, req UpdateDepartmentRequest) (*model.Department, error) {
	var d model.Department
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("get department: %w", err)
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return &d, nil
	}

	if err := s.db.WithContext(ctx).Model(&d).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update department: %w", err)
	}
	return &d, nil
}

func (s *clinicService) DeleteDepartment(ctx context.Context, id uint) error {
	var d model.Department
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return fmt.Errorf("get department: %w", err)
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Specialization{}).Where("department_id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("count specializations: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: department has specializations", ErrHasDependents)
	}
	if err := s.db.WithContext(ctx).Model(&model.Treatment{}).Where("department_id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("count treatments: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: department has treatments", ErrHasDependents)
	}

	if err := s.db.WithContext(ctx).Delete(&d).Error; err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Specializations
// ---------------------------------------------------------------------------

func (s *clinicService) ListSpecializations(ctx context.Context, departmentID *uint) ([]*model.Specialization, error) {
	q := s.db.WithContext(ctx).Model(&model.Specialization{})
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	var specs []*model.Specialization
	err := q.Order("name ASC").Find(&specs).Error
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return specs, nil
}

func (s *clinicService) CreateSpecialization(ctx context.Context, req CreateSpecializationRequest) (*model.Specialization, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	var d model.Department
	if err := s.db.WithContext(ctx).First(&d, req.DepartmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("get department: %w", err)
	}

	sp := &model.Specialization{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		PriceRange:   req.PriceRange,
		Duration:     req.Duration,
		IsActive:     true,
	}
	if sp.Duration <= 0 {
		sp.Duration = 30
	}
	if err := s.db.WithContext(ctx).Create(sp).Error; err != nil {
		return nil, fmt.Errorf("create specialization: %w", err)
	}
	return sp, nil
}

func (s *clinicService) UpdateSpecialization(ctx context.Context, id uint, req UpdateSpecializationRequest) (*model.Specialization, error) {
	var sp model.Specialization
	if err := s.db.WithContext(ctx).First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecializationNotFound
		}
		return nil, fmt.Errorf("get specialization: %w", err)
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PriceRange != nil {
		updates["price_range"] = *req.PriceRange
	}
	if req.Duration != nil {
		if *req.Duration <= 0 {
			return nil, fmt.Errorf("%w: duration must be positive", ErrValidation)
		}
		updates["duration"] = *req.Duration
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return &sp, nil
	}

	if err := s.db.WithContext(ctx).Model(&sp).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update specialization: %w", err)
	}
	return &sp, nil
}

func (s *clinicService) DeleteSpecialization(ctx context.Context, id uint) error {
	var sp model.Specialization
	if err := s.db.WithContext(ctx).First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpecializationNotFound
		}
		return fmt.Errorf("get specialization: %w", err)
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("specialization_id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: specialization has staff", ErrHasDependents)
	}

	if err := s.db.WithContext(ctx).Delete(&sp).Error; err != nil {
		return fmt.Errorf("delete specialization: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Treatments
// ---------------------------------------------------------------------------

func (s *clinicService) ListTreatments(ctx context.Context, clinicID, departmentID *uint) ([]*model.Treatment, error) {
	q := s.db.WithContext(ctx).Model(&model.Treatment{}).Where("is_active = ?", true)
	if clinicID != nil {
		q = q.Where("clinic_id = ?", *clinicID)
	}
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	var treatments []*model.Treatment
	err := q.Order("name ASC").Preload("Department").Find(&treatments).Error
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	return treatments, nil
}

func (s *clinicService) CreateTreatment(ctx context.Context, req CreateTreatmentRequest) (*model.Treatment, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	var d model.Department
	if err := s.db.WithContext(ctx).First(&d, req.DepartmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("get department: %w", err)
	}

	tr := &model.Treatment{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Duration:         req.Duration,
		DepartmentID:     req.DepartmentID,
		SpecializationID: req.SpecializationID,
		ClinicID:         d.ClinicID,
		IsActive:         true,
	}
	if tr.Duration <= 0 {
		tr.Duration = 30
	}
	if err := s.db.WithContext(ctx).Create(tr).Error; err != nil {
		return nil, fmt.Errorf("create treatment: %w", err)
	}
	return tr, nil
}

func (s *clinicService) UpdateTreatment(ctx context.Context, id uint, req UpdateTreatmentRequest) (*model.Treatment, error) {
	var tr model.Treatment
	if err := s.db.WithContext(ctx).First(&tr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTreatmentNotFound
		}
		return nil, fmt.Errorf("get treatment: %w", err)
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		updates["price"] = *req.Price
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return &tr, nil
	}

	if err := s.db.WithContext(ctx).Model(&tr).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update treatment: %w", err)
	}
	return &tr, nil
}

// DeleteTreatment deactivates the catalog entry so past billing data
// keeps resolving.
func (s *clinicService) DeleteTreatment(ctx context.Context, id uint) error {
	var tr model.Treatment
	if err := s.db.WithContext(ctx).First(&tr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTreatmentNotFound
		}
		return fmt.Errorf("get treatment: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&tr).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate treatment: %w", err)
	}
	return nil
}
