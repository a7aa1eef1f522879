package model

import "time"

// Treatment is a priced service offered by a clinic department.
type Treatment struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	Price       float64 `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	// Duration in minutes.
	Duration         int   `gorm:"default:30" json:"duration"`
	DepartmentID     uint  `gorm:"not null;index" json:"department_id"`
	SpecializationID *uint `gorm:"index" json:"specialization_id,omitempty"`
	ClinicID         uint  `gorm:"not null;index" json:"clinic_id"`
	IsActive         bool  `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Department     *Department     `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Specialization *Specialization `gorm:"foreignKey:SpecializationID" json:"specialization,omitempty"`
	Clinic         *Clinic         `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

func (Treatment) TableName() string { return "treatments" }
