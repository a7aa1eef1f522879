package access

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/internal/model"
)

// Engine evaluates record-level access for an authenticated actor. It sits
// behind the coarse role/action table (casbin): by the time a decision
// method runs, the actor's role is already allowed to attempt the
// operation in principle, and the target record is known to exist. The
// engine answers whether THIS actor may touch THIS record.
//
// The engine holds no mutable state; every decision is recomputed from
// fresh reads.
type Engine struct {
	db    *gorm.DB
	scope ScopePolicy
}

func NewEngine(db *gorm.DB, scope ScopePolicy) *Engine {
	return &Engine{db: db, scope: scope}
}

// Scope exposes the resolved clinic scope policy.
func (e *Engine) Scope() ScopePolicy {
	return e.scope
}

// ----------------------------
// Primitive predicates
// ----------------------------

func (e *Engine) isAdmin(actor *model.User) bool {
	return actor.Role == model.RoleAdmin
}

// sameClinic reports whether the resource's clinic falls inside the
// actor's scope. Admins scope to everything; other actors to their own
// clinic (or the configured one in single-clinic mode).
func (e *Engine) sameClinic(actor *model.User, resourceClinicID uint) bool {
	if e.isAdmin(actor) {
		return true
	}
	actorClinic := e.scope.ClinicOf(actor)
	if actorClinic == nil {
		return false
	}
	return *actorClinic == e.scope.ResourceClinic(resourceClinicID)
}

// ownsAppointment: the assigned doctor, any receptionist in scope, or admin.
func (e *Engine) ownsAppointment(actor *model.User, appt *model.Appointment) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleReceptionist:
		return e.sameClinic(actor, appt.ClinicID)
	case model.RoleDoctor:
		return appt.DoctorID == actor.ID
	}
	return false
}

// ownsVisit: the authoring doctor or admin.
func (e *Engine) ownsVisit(actor *model.User, visit *model.Visit) bool {
	if e.isAdmin(actor) {
		return true
	}
	return actor.Role == model.RoleDoctor && visit.DoctorID == actor.ID
}

// OwnsPatient implements the roster law: a doctor owns a patient iff at
// least one appointment or visit joins them. Receptionists own every
// patient in scope; admins own everything. The roster is derived, never
// stored.
func (e *Engine) OwnsPatient(ctx context.Context, actor *model.User, patient *model.Patient) (bool, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleReceptionist:
		return e.sameClinic(actor, patient.ClinicID), nil
	case model.RoleDoctor:
		var n int64
		err := e.db.WithContext(ctx).Model(&model.Appointment{}).
			Where("doctor_id = ? AND patient_id = ?", actor.ID, patient.ID).
			Count(&n).Error
		if err != nil {
			return false, fmt.Errorf("count roster appointments: %w", err)
		}
		if n > 0 {
			return true, nil
		}
		err = e.db.WithContext(ctx).Model(&model.Visit{}).
			Where("doctor_id = ? AND patient_id = ?", actor.ID, patient.ID).
			Count(&n).Error
		if err != nil {
			return false, fmt.Errorf("count roster visits: %w", err)
		}
		return n > 0, nil
	}
	return false, nil
}

// ----------------------------
// Appointment decisions
// ----------------------------

// CanCreateAppointment: receptionists and admins book freely within scope;
// a doctor may only book for themself (never assign another doctor).
func (e *Engine) CanCreateAppointment(actor *model.User, doctorID, clinicID uint) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	if !e.sameClinic(actor, clinicID) {
		return Deny(ReasonClinicScope)
	}
	switch actor.Role {
	case model.RoleReceptionist:
		return Allow()
	case model.RoleDoctor:
		if doctorID != actor.ID {
			return Deny(ReasonOwnershipMismatch)
		}
		return Allow()
	}
	return Deny(ReasonRoleMismatch)
}

func (e *Engine) CanReadAppointment(actor *model.User, appt *model.Appointment) Decision {
	if e.ownsAppointment(actor, appt) {
		return Allow()
	}
	if actor.Role == model.RoleDoctor {
		return Deny(ReasonOwnershipMismatch)
	}
	return Deny(ReasonClinicScope)
}

// CanUpdateAppointment: owner only. A doctor additionally may not hand the
// appointment to a different doctor.
func (e *Engine) CanUpdateAppointment(actor *model.User, appt *model.Appointment, newDoctorID *uint) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	if !e.ownsAppointment(actor, appt) {
		if actor.Role == model.RoleDoctor {
			return Deny(ReasonOwnershipMismatch)
		}
		return Deny(ReasonClinicScope)
	}
	if actor.Role == model.RoleDoctor && newDoctorID != nil && *newDoctorID != actor.ID {
		return Deny(ReasonOwnershipMismatch)
	}
	return Allow()
}

// CanDeleteAppointment: the role table already restricts delete to
// receptionist/admin; the engine adds the scope boundary.
func (e *Engine) CanDeleteAppointment(actor *model.User, appt *model.Appointment) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	if actor.Role != model.RoleReceptionist {
		return Deny(ReasonRoleMismatch)
	}
	if !e.sameClinic(actor, appt.ClinicID) {
		return Deny(ReasonClinicScope)
	}
	return Allow()
}

// CanTransitionAppointment gates status changes on ownership. Whether a
// given edge is legal from the current status is the lifecycle manager's
// allow-list, not an access question.
func (e *Engine) CanTransitionAppointment(actor *model.User, appt *model.Appointment) Decision {
	if !e.ownsAppointment(actor, appt) {
		if actor.Role == model.RoleDoctor {
			return Deny(ReasonOwnershipMismatch)
		}
		return Deny(ReasonClinicScope)
	}
	return Allow()
}

// ----------------------------
// Patient decisions
// ----------------------------

// CanCreatePatient: any authenticated role, within clinic scope.
func (e *Engine) CanCreatePatient(actor *model.User, clinicID uint) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	if !e.sameClinic(actor, clinicID) {
		return Deny(ReasonClinicScope)
	}
	return Allow()
}

func (e *Engine) CanReadPatient(ctx context.Context, actor *model.User, patient *model.Patient) (Decision, error) {
	owns, err := e.OwnsPatient(ctx, actor, patient)
	if err != nil {
		return Decision{}, err
	}
	if owns {
		return Allow(), nil
	}
	if actor.Role == model.RoleDoctor {
		return Deny(ReasonOwnershipMismatch), nil
	}
	return Deny(ReasonClinicScope), nil
}

func (e *Engine) CanUpdatePatient(ctx context.Context, actor *model.User, patient *model.Patient) (Decision, error) {
	return e.CanReadPatient(ctx, actor, patient)
}

// CanDeletePatient: admin only.
func (e *Engine) CanDeletePatient(actor *model.User) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	return Deny(ReasonRoleMismatch)
}

// ----------------------------
// Visit decisions
// ----------------------------

// CanCreateVisit: doctors and admins only; a doctor writes visits under
// their own name.
func (e *Engine) CanCreateVisit(actor *model.User, doctorID uint) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	if actor.Role != model.RoleDoctor {
		return Deny(ReasonRoleMismatch)
	}
	if doctorID != actor.ID {
		return Deny(ReasonOwnershipMismatch)
	}
	return Allow()
}

func (e *Engine) CanReadVisit(ctx context.Context, actor *model.User, visit *model.Visit) (Decision, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return Allow(), nil
	case model.RoleReceptionist:
		if e.sameClinic(actor, visit.ClinicID) {
			return Allow(), nil
		}
		return Deny(ReasonClinicScope), nil
	case model.RoleDoctor:
		if visit.DoctorID == actor.ID {
			return Allow(), nil
		}
		// Roster-derived: a doctor may read visits of patients on their roster.
		patient := model.Patient{ID: visit.PatientID, ClinicID: visit.ClinicID}
		owns, err := e.OwnsPatient(ctx, actor, &patient)
		if err != nil {
			return Decision{}, err
		}
		if owns {
			return Allow(), nil
		}
		return Deny(ReasonOwnershipMismatch), nil
	}
	return Deny(ReasonRoleMismatch), nil
}

func (e *Engine) CanUpdateVisit(actor *model.User, visit *model.Visit) Decision {
	if e.ownsVisit(actor, visit) {
		return Allow()
	}
	if actor.Role == model.RoleDoctor {
		return Deny(ReasonOwnershipMismatch)
	}
	return Deny(ReasonRoleMismatch)
}

// CanDeleteVisit: admin only.
func (e *Engine) CanDeleteVisit(actor *model.User) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	return Deny(ReasonRoleMismatch)
}

// ----------------------------
// Staff (user) decisions
// ----------------------------

// CanCreateUser: admin only.
func (e *Engine) CanCreateUser(actor *model.User) Decision {
	if e.isAdmin(actor) {
		return Allow()
	}
	return Deny(ReasonRoleMismatch)
}

// CanReadUser: admin, or self for profile reads.
func (e *Engine) CanReadUser(actor *model.User, targetID uint) Decision {
	if e.isAdmin(actor) || actor.ID == targetID {
		return Allow()
	}
	return Deny(ReasonRoleMismatch)
}

// CanUpdateUser: admin only, and an admin may not change their own role
// away from admin (self-demotion is how systems lose their last admin).
// The last-admin invariant is re-validated inside the mutation
// transaction; this is only the pre-check.
func (e *Engine) CanUpdateUser(actor *model.User, target *model.User, newRole *model.Role) Decision {
	if !e.isAdmin(actor) {
		return Deny(ReasonRoleMismatch)
	}
	if actor.ID == target.ID && newRole != nil && *newRole != model.RoleAdmin {
		return Deny(ReasonSelfMutation)
	}
	return Allow()
}

// CanDeleteUser: admin only, never self. The last-admin check is
// re-validated in-transaction by the user service.
func (e *Engine) CanDeleteUser(actor *model.User, targetID uint) Decision {
	if !e.isAdmin(actor) {
		return Deny(ReasonRoleMismatch)
	}
	if actor.ID == targetID {
		return Deny(ReasonSelfMutation)
	}
	return Allow()
}

// ----------------------------
// List scopes
// ----------------------------

// AppointmentScope narrows list queries to what the actor may see:
// everything for admin, the clinic for receptionists, only their own
// book for doctors.
func (e *Engine) AppointmentScope(actor *model.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch actor.Role {
		case model.RoleAdmin:
			return db
		case model.RoleReceptionist:
			if c := e.scope.ClinicOf(actor); c != nil {
				return db.Where("appointments.clinic_id = ?", *c)
			}
			return db.Where("1 = 0")
		case model.RoleDoctor:
			return db.Where("appointments.doctor_id = ?", actor.ID)
		}
		return db.Where("1 = 0")
	}
}

// PatientScope narrows patient lists: a doctor only sees roster-derived
// patients (≥1 appointment or visit under that doctor).
func (e *Engine) PatientScope(actor *model.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch actor.Role {
		case model.RoleAdmin:
			return db
		case model.RoleReceptionist:
			if c := e.scope.ClinicOf(actor); c != nil {
				return db.Where("patients.clinic_id = ?", *c)
			}
			return db.Where("1 = 0")
		case model.RoleDoctor:
			return db.Where(
				"patients.id IN (?) OR patients.id IN (?)",
				e.db.Model(&model.Appointment{}).Select("patient_id").Where("doctor_id = ?", actor.ID),
				e.db.Model(&model.Visit{}).Select("patient_id").Where("doctor_id = ?", actor.ID),
			)
		}
		return db.Where("1 = 0")
	}
}

// VisitScope narrows visit lists the same way.
func (e *Engine) VisitScope(actor *model.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch actor.Role {
		case model.RoleAdmin:
			return db
		case model.RoleReceptionist:
			if c := e.scope.ClinicOf(actor); c != nil {
				return db.Where("visits.clinic_id = ?", *c)
			}
			return db.Where("1 = 0")
		case model.RoleDoctor:
			return db.Where("visits.doctor_id = ?", actor.ID)
		}
		return db.Where("1 = 0")
	}
}
