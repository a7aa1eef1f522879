package model

import (
	"time"

	"gorm.io/datatypes"
)

// Questionnaire domains. Each domain gets one structured answer map.
const (
	QuestionnaireNutrition = "nutrition"
	QuestionnaireDentistry = "dentistry"
	QuestionnaireLaser     = "laser"
	QuestionnaireGeneral   = "general"
)

func ValidQuestionnaireDomain(d string) bool {
	switch d {
	case QuestionnaireNutrition, QuestionnaireDentistry, QuestionnaireLaser, QuestionnaireGeneral:
		return true
	}
	return false
}

type Questionnaire struct {
	ID           uint  `gorm:"primaryKey" json:"id"`
	PatientID    uint  `gorm:"not null;index" json:"patient_id"`
	DoctorID     uint  `gorm:"not null;index" json:"doctor_id"`
	DepartmentID *uint `gorm:"index" json:"department_id,omitempty"`
	// At most one questionnaire per appointment.
	AppointmentID *uint `gorm:"uniqueIndex" json:"appointment_id,omitempty"`

	Nutrition datatypes.JSONMap `gorm:"type:jsonb" json:"nutrition,omitempty"`
	Dentistry datatypes.JSONMap `gorm:"type:jsonb" json:"dentistry,omitempty"`
	Laser     datatypes.JSONMap `gorm:"type:jsonb" json:"laser,omitempty"`
	General   datatypes.JSONMap `gorm:"type:jsonb" json:"general,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User    `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Questionnaire) TableName() string { return "questionnaires" }
