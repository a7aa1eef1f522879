package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PatientNumberFormat renders the public patient identifier from the
// store-assigned id, e.g. 42 -> "PAT-000042". The number is derived from
// the primary key so uniqueness holds under concurrent creation.
func FormatPatientNumber(id uint) string {
	return fmt.Sprintf("PAT-%06d", id)
}

type Patient struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	PatientNumber string `gorm:"size:20;uniqueIndex" json:"patient_number"`
	FullName      string `gorm:"size:100;not null" json:"full_name"`
	// Phone is stored normalized (see pkg phone helpers); together with
	// the lowercased full name it is the de-duplication identity key.
	Phone          string `gorm:"size:20;not null;index" json:"phone"`
	AlternatePhone string `gorm:"size:20" json:"alternate_phone,omitempty"`
	Email          string `gorm:"size:100" json:"email,omitempty"`
	Age            *int   `json:"age,omitempty"`
	Gender         string `gorm:"size:10" json:"gender,omitempty"`
	Address        string `gorm:"type:text" json:"address,omitempty"`
	Medications    string `gorm:"type:text" json:"medications,omitempty"`
	Allergies      string `gorm:"type:text" json:"allergies,omitempty"`

	// Documents is an optional structured list of stored object keys.
	Documents datatypes.JSON `gorm:"type:jsonb" json:"documents,omitempty"`

	ClinicID  uint `gorm:"not null;index" json:"clinic_id"`
	CreatedBy uint `gorm:"not null;index" json:"created_by"`
	IsActive  bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Clinic  *Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Creator *User   `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`

	// HistoryEntries is the aggregated medical history, most recent first.
	HistoryEntries []HistoryEntry `gorm:"foreignKey:PatientID" json:"history_entries,omitempty"`
}

func (Patient) TableName() string { return "patients" }

// AfterCreate assigns the patient number from the freshly generated id,
// inside the same transaction as the insert.
func (p *Patient) AfterCreate(tx *gorm.DB) error {
	p.PatientNumber = FormatPatientNumber(p.ID)
	return tx.Model(p).Update("patient_number", p.PatientNumber).Error
}

// NormalizedName is the case-folded form used for duplicate detection.
func (p *Patient) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(p.FullName))
}

// HistoryEntry is one immutable line of a patient's medical history.
// Entries are only ever prepended (ordered by RecordedAt descending);
// nothing updates or deletes them.
type HistoryEntry struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PatientID uint `gorm:"not null;index" json:"patient_id"`
	VisitID   *uint `gorm:"index" json:"visit_id,omitempty"`

	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
	Diagnosis  string    `gorm:"type:text" json:"diagnosis"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (HistoryEntry) TableName() string { return "patient_history_entries" }

// Line renders the entry in the aggregated-history text form.
func (e HistoryEntry) Line() string {
	s := fmt.Sprintf("[%s] %s", e.RecordedAt.Format("2006-01-02"), e.Diagnosis)
	if e.Notes != "" {
		s += " / " + e.Notes
	}
	return s
}

// RenderHistory joins entries (assumed most-recent-first) into the
// free-text aggregated medical history view.
func RenderHistory(entries []HistoryEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Line())
	}
	return strings.Join(lines, "\n")
}
