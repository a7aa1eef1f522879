package appointment

import (
	"errors"
	"fmt"

	"github.com/dok75/clinic_backend/internal/model"
)

var (
	ErrNotFound        = errors.New("appointment not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrVisitExists     = errors.New("appointment already has a visit record")
	ErrValidation      = errors.New("invalid appointment data")
)

// InvalidTransitionError reports a status change the lifecycle state
// machine does not permit.
type InvalidTransitionError struct {
	From model.AppointmentStatus
	To   model.AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}
