package file

import "errors"

var (
	ErrNotFound        = errors.New("patient file not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrVisitNotFound   = errors.New("visit not found")
	ErrValidation      = errors.New("invalid file data")
)
