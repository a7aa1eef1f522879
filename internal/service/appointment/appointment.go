package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	DoctorID  *uint
	PatientID *uint
	Status    *string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

type BookRequest struct {
	PatientID        uint
	DoctorID         uint
	DepartmentID     *uint
	SpecializationID *uint
	AppointmentDate  time.Time
	Status           string // optional; aliases accepted, defaults to pending
	Notes            string
}

type UpdateRequest struct {
	DoctorID         *uint
	DepartmentID     *uint
	SpecializationID *uint
	AppointmentDate  *time.Time
	Notes            *string
}

// Stats is the aggregate snapshot used by dashboards.
type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Today     int64 `json:"today"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, actor *model.User, req ListRequest) ([]*model.Appointment, error)
	Today(ctx context.Context, actor *model.User) ([]*model.Appointment, error)
	Stats(ctx context.Context, actor *model.User) (*Stats, error)
	GetByID(ctx context.Context, actor *model.User, id uint) (*model.Appointment, error)
	Book(ctx context.Context, actor *model.User, req BookRequest) (*model.Appointment, error)
	Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Appointment, error)
	ChangeStatus(ctx context.Context, actor *model.User, id uint, status string) (*model.Appointment, error)
	Cancel(ctx context.Context, actor *model.User, id uint) error
	Delete(ctx context.Context, actor *model.User, id uint) error
	Complete(ctx context.Context, actor *model.User, id uint, req CompleteRequest) (*model.Visit, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	db     *gorm.DB
	engine *access.Engine
	nc     *nats.Conn
	rdb    *redis.Client
}

func New(db *gorm.DB, engine *access.Engine, nc *nats.Conn, rdb *redis.Client) Service {
	return &appointmentService{db: db, engine: engine, nc: nc, rdb: rdb}
}

func (s *appointmentService) List(ctx context.Context, actor *model.User, req ListRequest) ([]*model.Appointment, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	q := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Scopes(s.engine.AppointmentScope(actor))

	if req.DoctorID != nil {
		q = q.Where("appointments.doctor_id = ?", *req.DoctorID)
	}
	if req.PatientID != nil {
		q = q.Where("appointments.patient_id = ?", *req.PatientID)
	}
	if req.Status != nil {
		st, err := model.ParseAppointmentStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		q = q.Where("appointments.status = ?", st)
	}
	if req.From != nil {
		q = q.Where("appointments.appointment_date >= ?", *req.From)
	}
	if req.To != nil {
		q = q.Where("appointments.appointment_date < ?", *req.To)
	}

	var appts []*model.Appointment
	err := q.Order("appointment_date DESC").
		Offset(offset).Limit(req.PerPage).
		Preload("Patient").Preload("Doctor").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *appointmentService) Today(ctx context.Context, actor *model.User) ([]*model.Appointment, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24 * time.Hour)

	var appts []*model.Appointment
	err := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Scopes(s.engine.AppointmentScope(actor)).
		Where("appointments.appointment_date >= ? AND appointments.appointment_date < ?", from, to).
		Order("appointment_date ASC").
		Preload("Patient").Preload("Doctor").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("list today's appointments: %w", err)
	}
	return appts, nil
}

func (s *appointmentService) GetByID(ctx context.Context, actor *model.User, id uint) (*model.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CanReadAppointment(actor, appt).Err(); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) Book(ctx context.Context, actor *model.User, req BookRequest) (*model.Appointment, error) {
	if req.AppointmentDate.IsZero() {
		return nil, fmt.Errorf("%w: appointment_date is required", ErrValidation)
	}

	status := model.StatusPending
	if req.Status != "" {
		st, err := model.ParseAppointmentStatus(req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if st.Terminal() {
			return nil, fmt.Errorf("%w: cannot book an appointment as %s", ErrValidation, st)
		}
		status = st
	}

	var patient model.Patient
	if err := s.db.WithContext(ctx).First(&patient, req.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	var doctor model.User
	err := s.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", req.DoctorID, model.RoleDoctor, true).
		First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if err := s.engine.CanCreateAppointment(actor, req.DoctorID, patient.ClinicID).Err(); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		PatientID:        patient.ID,
		DoctorID:         doctor.ID,
		CreatedBy:        &actor.ID,
		ClinicID:         patient.ClinicID,
		DepartmentID:     req.DepartmentID,
		SpecializationID: req.SpecializationID,
		AppointmentDate:  req.AppointmentDate,
		Status:           status,
		Notes:            req.Notes,
	}
	if err := s.db.WithContext(ctx).Create(appt).Error; err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.publish(eventCreated, appt)
	return appt, nil
}

func (s *appointmentService) Update(ctx context.Context, actor *model.User, id uint, req UpdateRequest) (*model.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CanUpdateAppointment(actor, appt, req.DoctorID).Err(); err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, (&access.DeniedError{Reason: access.ReasonTerminalState})
	}

	updates := map[string]any{}
	if req.DoctorID != nil {
		var doctor model.User
		err := s.db.WithContext(ctx).
			Where("id = ? AND role = ? AND is_active = ?", *req.DoctorID, model.RoleDoctor, true).
			First(&doctor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDoctorNotFound
			}
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		updates["doctor_id"] = *req.DoctorID
	}
	if req.DepartmentID != nil {
		updates["department_id"] = *req.DepartmentID
	}
	if req.SpecializationID != nil {
		updates["specialization_id"] = *req.SpecializationID
	}
	if req.AppointmentDate != nil {
		updates["appointment_date"] = *req.AppointmentDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return appt, nil
	}

	if err := s.db.WithContext(ctx).Model(appt).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.publish(eventUpdated, appt)
	return appt, nil
}

// ChangeStatus moves an appointment through the lifecycle allow-list.
// Completion is rejected here: it must go through Complete so the visit
// record is created atomically with the status flip.
func (s *appointmentService) ChangeStatus(ctx context.Context, actor *model.User, id uint, status string) (*model.Appointment, error) {
	target, err := model.ParseAppointmentStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if target == model.StatusCompleted {
		return nil, fmt.Errorf("%w: completion requires a visit record", ErrValidation)
	}

	var appt *model.Appointment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appt = &model.Appointment{}
		err := lockForUpdate(tx).First(appt, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load appointment: %w", err)
		}
		if err := s.engine.CanTransitionAppointment(actor, appt).Err(); err != nil {
			return err
		}
		if !canTransition(appt.Status, target) {
			return &InvalidTransitionError{From: appt.Status, To: target}
		}
		appt.Status = target
		return tx.Model(appt).Update("status", target).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(eventForStatus(target), appt)
	return appt, nil
}

func (s *appointmentService) Cancel(ctx context.Context, actor *model.User, id uint) error {
	_, err := s.ChangeStatus(ctx, actor, id, string(model.StatusCancelled))
	return err
}

func (s *appointmentService) Delete(ctx context.Context, actor *model.User, id uint) error {
	appt, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.CanDeleteAppointment(actor, appt).Err(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(appt).Error; err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	s.publish(eventDeleted, appt)
	return nil
}

func (s *appointmentService) load(ctx context.Context, id uint) (*model.Appointment, error) {
	var appt model.Appointment
	err := s.db.WithContext(ctx).
		Preload("Patient").Preload("Doctor").Preload("Visit").
		First(&appt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &appt, nil
}
