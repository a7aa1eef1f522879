package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/model"
)

// CompleteRequest carries the clinical record written at completion.
type CompleteRequest struct {
	Complaint     string
	Diagnosis     string
	Treatment     string
	DoctorNotes   string
	Prescriptions datatypes.JSON
	Attachments   datatypes.JSON
	VisitDate     *time.Time // defaults to now
}

// Complete flips the appointment to completed and creates its visit
// record in one transaction. The appointment row is locked for the
// duration, so concurrent duplicate completions serialize: the loser
// re-reads a completed status and fails on the transition allow-list.
// The visit's unique appointment index is the storage-level backstop.
func (s *appointmentService) Complete(ctx context.Context, actor *model.User, id uint, req CompleteRequest) (*model.Visit, error) {
	if req.Diagnosis == "" {
		return nil, fmt.Errorf("%w: diagnosis is required", ErrValidation)
	}

	visitDate := time.Now()
	if req.VisitDate != nil {
		visitDate = *req.VisitDate
	}

	var visit *model.Visit
	var appt *model.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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
		if !canTransition(appt.Status, model.StatusCompleted) {
			return &InvalidTransitionError{From: appt.Status, To: model.StatusCompleted}
		}

		var existing int64
		if err := tx.Model(&model.Visit{}).Where("appointment_id = ?", appt.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing visit: %w", err)
		}
		if existing > 0 {
			return ErrVisitExists
		}

		apptID := appt.ID
		visit = &model.Visit{
			PatientID:     appt.PatientID,
			DoctorID:      appt.DoctorID,
			AppointmentID: &apptID,
			ClinicID:      appt.ClinicID,
			VisitDate:     visitDate,
			Complaint:     req.Complaint,
			Diagnosis:     req.Diagnosis,
			Treatment:     req.Treatment,
			DoctorNotes:   req.DoctorNotes,
			Prescriptions: req.Prescriptions,
			Attachments:   req.Attachments,
		}
		if err := tx.Create(visit).Error; err != nil {
			return fmt.Errorf("create visit: %w", err)
		}

		appt.Status = model.StatusCompleted
		if err := tx.Model(appt).Update("status", model.StatusCompleted).Error; err != nil {
			return fmt.Errorf("complete appointment: %w", err)
		}

		entry := &model.HistoryEntry{
			PatientID:  appt.PatientID,
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

	s.publish(eventCompleted, appt)
	return visit, nil
}
