package visit

import "errors"

var (
	ErrNotFound        = errors.New("visit not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrValidation      = errors.New("invalid visit data")
)
