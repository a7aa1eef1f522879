package questionnaire

import "errors"

var (
	ErrNotFound            = errors.New("questionnaire not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAlreadyExists       = errors.New("appointment already has a questionnaire")
	ErrValidation          = errors.New("invalid questionnaire data")
)
