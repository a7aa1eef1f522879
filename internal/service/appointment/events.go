package appointment

import (
	"encoding/json"
	"fmt"

	"github.com/dok75/clinic_backend/internal/model"
)

// Lifecycle event names, published on "clinic.appointment.<event>.<id>".
// The stats cache worker subscribes to the wildcard and refreshes its
// per-clinic counters.
const (
	eventCreated   = "created"
	eventUpdated   = "updated"
	eventConfirmed = "confirmed"
	eventCompleted = "completed"
	eventCancelled = "cancelled"
	eventDeleted   = "deleted"
)

func eventForStatus(st model.AppointmentStatus) string {
	switch st {
	case model.StatusConfirmed:
		return eventConfirmed
	case model.StatusCompleted:
		return eventCompleted
	case model.StatusCancelled:
		return eventCancelled
	}
	return eventUpdated
}

// Event is the wire payload of a lifecycle event.
type Event struct {
	AppointmentID uint                    `json:"appointment_id"`
	ClinicID      uint                    `json:"clinic_id"`
	DoctorID      uint                    `json:"doctor_id"`
	PatientID     uint                    `json:"patient_id"`
	Status        model.AppointmentStatus `json:"status"`
}

func (s *appointmentService) publish(event string, appt *model.Appointment) {
	if s.nc == nil {
		return
	}
	payload, err := json.Marshal(Event{
		AppointmentID: appt.ID,
		ClinicID:      appt.ClinicID,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
		Status:        appt.Status,
	})
	if err != nil {
		return
	}
	subject := fmt.Sprintf("clinic.appointment.%s.%d", event, appt.ID)
	_ = s.nc.Publish(subject, payload)
}
