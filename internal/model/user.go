package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the canonical staff role. Incoming payloads may use historical
// aliases (see ParseRole); the canonical value is what gets stored.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

// roleAliases maps legacy role spellings onto the canonical enum.
var roleAliases = map[string]Role{
	"admin":        RoleAdmin,
	"super_admin":  RoleAdmin,
	"superadmin":   RoleAdmin,
	"doctor":       RoleDoctor,
	"receptionist": RoleReceptionist,
}

// ParseRole normalizes a role string through the alias table.
func ParseRole(s string) (Role, error) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return true
	}
	return false
}

// User is a staff account: admin, doctor or receptionist.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	FullName     string `gorm:"size:100;not null" json:"full_name"`
	Role         Role   `gorm:"size:20;not null;default:doctor;index" json:"role"`
	Phone        string `gorm:"size:20" json:"phone,omitempty"`
	Email        string `gorm:"size:100" json:"email,omitempty"`

	ClinicID         *uint `gorm:"index" json:"clinic_id,omitempty"`
	DepartmentID     *uint `gorm:"index" json:"department_id,omitempty"`
	SpecializationID *uint `gorm:"index" json:"specialization_id,omitempty"`

	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Clinic         *Clinic         `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Department     *Department     `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Specialization *Specialization `gorm:"foreignKey:SpecializationID" json:"specialization,omitempty"`
}

func (User) TableName() string { return "users" }
