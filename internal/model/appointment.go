package model

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus is the canonical 4-value status enum. "scheduled" is
// accepted on input as an alias of pending but never stored.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

var statusAliases = map[string]AppointmentStatus{
	"pending":   StatusPending,
	"scheduled": StatusPending,
	"confirmed": StatusConfirmed,
	"completed": StatusCompleted,
	"cancelled": StatusCancelled,
}

// ParseAppointmentStatus normalizes a status string through the alias table.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
	return st, nil
}

// Terminal reports whether no further transition is allowed from st.
func (st AppointmentStatus) Terminal() bool {
	return st == StatusCompleted || st == StatusCancelled
}

type Appointment struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	PatientID uint  `gorm:"not null;index" json:"patient_id"`
	DoctorID  uint  `gorm:"not null;index" json:"doctor_id"`
	CreatedBy *uint `gorm:"index" json:"created_by,omitempty"`
	ClinicID  uint  `gorm:"not null;index" json:"clinic_id"`

	DepartmentID     *uint `gorm:"index" json:"department_id,omitempty"`
	SpecializationID *uint `gorm:"index" json:"specialization_id,omitempty"`

	AppointmentDate time.Time         `gorm:"not null;index" json:"appointment_date"`
	Status          AppointmentStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User    `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Clinic  *Clinic  `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Visit   *Visit   `gorm:"foreignKey:AppointmentID" json:"visit,omitempty"`
}

func (Appointment) TableName() string { return "appointments" }
