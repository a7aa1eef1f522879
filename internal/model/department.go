package model

import "time"

type Department struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Icon        string `gorm:"size:50" json:"icon,omitempty"`
	ClinicID    uint   `gorm:"not null;index" json:"clinic_id"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Clinic          *Clinic          `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Specializations []Specialization `gorm:"foreignKey:DepartmentID" json:"specializations,omitempty"`
}

func (Department) TableName() string { return "departments" }
