package appointment

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dok75/clinic_backend/internal/model"
)

// lockForUpdate takes a row lock on backends that support it. SQLite
// (used in tests) has no FOR UPDATE and serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// transitions is the lifecycle allow-list. Completed and cancelled are
// terminal; cancellation is reachable from every non-terminal state.
// Confirmation is optional, so completion is reachable from pending too.
// Completion goes through Complete, never through a plain status change,
// because it must create the visit record in the same transaction.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted: {},
	model.StatusCancelled: {},
}

func canTransition(from, to model.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
