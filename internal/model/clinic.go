package model

import "time"

type Clinic struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Address     string `gorm:"type:text" json:"address,omitempty"`
	Phone       string `gorm:"size:20" json:"phone,omitempty"`
	Email       string `gorm:"size:100" json:"email,omitempty"`
	Logo        string `gorm:"size:255" json:"logo,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Departments []Department `gorm:"foreignKey:ClinicID" json:"departments,omitempty"`
}

func (Clinic) TableName() string { return "clinics" }
