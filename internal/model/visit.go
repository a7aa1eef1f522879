package model

import (
	"time"

	"gorm.io/datatypes"
)

// Visit is the clinical record produced by a completed encounter. At most
// one visit may reference a given appointment; the unique index backs up
// the lifecycle manager's in-transaction check.
type Visit struct {
	ID            uint  `gorm:"primaryKey" json:"id"`
	PatientID     uint  `gorm:"not null;index" json:"patient_id"`
	DoctorID      uint  `gorm:"not null;index" json:"doctor_id"`
	AppointmentID *uint `gorm:"uniqueIndex" json:"appointment_id,omitempty"`
	ClinicID      uint  `gorm:"not null;index" json:"clinic_id"`

	VisitDate   time.Time `gorm:"not null;index" json:"visit_date"`
	Complaint   string    `gorm:"type:text" json:"complaint,omitempty"`
	Diagnosis   string    `gorm:"type:text" json:"diagnosis,omitempty"`
	Treatment   string    `gorm:"type:text" json:"treatment,omitempty"`
	DoctorNotes string    `gorm:"type:text" json:"doctor_notes,omitempty"`

	Prescriptions datatypes.JSON `gorm:"type:jsonb" json:"prescriptions,omitempty"`
	Attachments   datatypes.JSON `gorm:"type:jsonb" json:"attachments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Patient     *Patient     `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor      *User        `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (Visit) TableName() string { return "visits" }
