package clinic

import "errors"

var (
	ErrClinicNotFound         = errors.New("clinic not found")
	ErrDepartmentNotFound     = errors.New("department not found")
	ErrSpecializationNotFound = errors.New("specialization not found")
	ErrTreatmentNotFound      = errors.New("treatment not found")
	ErrNameExists             = errors.New("a clinic with this name already exists")
	ErrHasDependents          = errors.New("record is referenced by other records")
	ErrValidation             = errors.New("invalid directory data")
)
