package model

import "time"

// PatientFile is a stored document attached to a patient record (scans,
// lab results, referral letters). The bytes live in object storage; the
// row only carries the key and metadata.
type PatientFile struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	PatientID uint  `gorm:"not null;index" json:"patient_id"`
	ClinicID  uint  `gorm:"not null;index" json:"clinic_id"`
	VisitID   *uint `gorm:"index" json:"visit_id,omitempty"`

	FileKey     string `gorm:"size:255;not null;uniqueIndex" json:"file_key"`
	FileName    string `gorm:"size:255;not null" json:"file_name"`
	FileSize    int64  `json:"file_size,omitempty"`
	MimeType    string `gorm:"size:100" json:"mime_type,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	UploadedBy uint `gorm:"not null;index" json:"uploaded_by"`

	CreatedAt time.Time `json:"created_at"`

	Patient  *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Uploader *User    `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

func (PatientFile) TableName() string { return "patient_files" }
