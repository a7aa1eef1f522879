package model

import "gorm.io/gorm"

// All lists every persisted entity in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Clinic{},
		&Department{},
		&Specialization{},
		&Treatment{},
		&User{},
		&Patient{},
		&HistoryEntry{},
		&Appointment{},
		&Visit{},
		&Questionnaire{},
		&PatientFile{},
	}
}

// Migrate applies the schema for all entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
