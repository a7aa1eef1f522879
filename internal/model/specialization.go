package model

import "time"

type Specialization struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null" json:"name"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
	DepartmentID uint   `gorm:"not null;index" json:"department_id"`
	PriceRange   string `gorm:"size:50" json:"price_range,omitempty"`
	// Duration is the default slot length in minutes.
	Duration int  `gorm:"default:30" json:"duration"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

func (Specialization) TableName() string { return "specializations" }
