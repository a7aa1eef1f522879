package access

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dok75/clinic_backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite: one pooled connection, one database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.Migrate(db))
	return db
}

func uintPtr(v uint) *uint { return &v }

func testActors(clinicID uint) (admin, doctor, receptionist *model.User) {
	admin = &model.User{ID: 1, Role: model.RoleAdmin}
	doctor = &model.User{ID: 2, Role: model.RoleDoctor, ClinicID: &clinicID}
	receptionist = &model.User{ID: 3, Role: model.RoleReceptionist, ClinicID: &clinicID}
	return
}

func TestOwnsPatientRosterDerivation(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	ctx := context.Background()

	_, doctor, receptionist := testActors(1)
	otherDoctor := &model.User{ID: 9, Role: model.RoleDoctor, ClinicID: uintPtr(1)}

	patient := &model.Patient{FullName: "Test Patient", Phone: "+989121234567", ClinicID: 1, CreatedBy: receptionist.ID}
	require.NoError(t, db.Create(patient).Error)

	// No appointment, no visit: the doctor has no claim on the patient.
	owns, err := engine.OwnsPatient(ctx, doctor, patient)
	require.NoError(t, err)
	assert.False(t, owns)

	// One appointment joins them.
	appt := &model.Appointment{PatientID: patient.ID, DoctorID: doctor.ID, ClinicID: 1, AppointmentDate: time.Now()}
	require.NoError(t, db.Create(appt).Error)

	owns, err = engine.OwnsPatient(ctx, doctor, patient)
	require.NoError(t, err)
	assert.True(t, owns)

	// Ownership does not leak to an unrelated doctor.
	owns, err = engine.OwnsPatient(ctx, otherDoctor, patient)
	require.NoError(t, err)
	assert.False(t, owns)

	// A bare visit (no appointment) also establishes the roster link.
	barePatient := &model.Patient{FullName: "Walk In", Phone: "+989129999999", ClinicID: 1, CreatedBy: doctor.ID}
	require.NoError(t, db.Create(barePatient).Error)
	visit := &model.Visit{PatientID: barePatient.ID, DoctorID: otherDoctor.ID, ClinicID: 1, VisitDate: time.Now()}
	require.NoError(t, db.Create(visit).Error)

	owns, err = engine.OwnsPatient(ctx, otherDoctor, barePatient)
	require.NoError(t, err)
	assert.True(t, owns)
}

func TestOwnsPatientByRole(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	ctx := context.Background()

	admin, _, receptionist := testActors(1)
	otherClinicReceptionist := &model.User{ID: 8, Role: model.RoleReceptionist, ClinicID: uintPtr(2)}

	patient := &model.Patient{FullName: "Someone", Phone: "+989120000001", ClinicID: 1, CreatedBy: receptionist.ID}
	require.NoError(t, db.Create(patient).Error)

	owns, err := engine.OwnsPatient(ctx, admin, patient)
	require.NoError(t, err)
	assert.True(t, owns, "admin owns everything")

	owns, err = engine.OwnsPatient(ctx, receptionist, patient)
	require.NoError(t, err)
	assert.True(t, owns, "receptionist owns all patients in clinic")

	owns, err = engine.OwnsPatient(ctx, otherClinicReceptionist, patient)
	require.NoError(t, err)
	assert.False(t, owns, "receptionist does not reach across clinics")
}

func TestCanCreateAppointment(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	admin, doctor, receptionist := testActors(1)

	assert.True(t, engine.CanCreateAppointment(admin, 42, 1).Allowed)
	assert.True(t, engine.CanCreateAppointment(receptionist, 42, 1).Allowed)
	assert.True(t, engine.CanCreateAppointment(doctor, doctor.ID, 1).Allowed)

	d := engine.CanCreateAppointment(doctor, 42, 1)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOwnershipMismatch, d.Reason, "doctor cannot book for another doctor")

	d = engine.CanCreateAppointment(receptionist, 42, 2)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonClinicScope, d.Reason)
}

func TestAppointmentOwnershipDecisions(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	admin, doctor, receptionist := testActors(1)
	otherDoctor := &model.User{ID: 9, Role: model.RoleDoctor, ClinicID: uintPtr(1)}

	appt := &model.Appointment{ID: 1, PatientID: 1, DoctorID: doctor.ID, ClinicID: 1, Status: model.StatusPending}

	assert.True(t, engine.CanReadAppointment(admin, appt).Allowed)
	assert.True(t, engine.CanReadAppointment(doctor, appt).Allowed)
	assert.True(t, engine.CanReadAppointment(receptionist, appt).Allowed)

	d := engine.CanReadAppointment(otherDoctor, appt)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOwnershipMismatch, d.Reason)

	// Doctor may update their own appointment, but not reassign it.
	assert.True(t, engine.CanUpdateAppointment(doctor, appt, nil).Allowed)
	d = engine.CanUpdateAppointment(doctor, appt, uintPtr(otherDoctor.ID))
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOwnershipMismatch, d.Reason)

	// Receptionist in clinic may reassign.
	assert.True(t, engine.CanUpdateAppointment(receptionist, appt, uintPtr(otherDoctor.ID)).Allowed)

	// Delete: receptionist and admin only.
	assert.True(t, engine.CanDeleteAppointment(admin, appt).Allowed)
	assert.True(t, engine.CanDeleteAppointment(receptionist, appt).Allowed)
	d = engine.CanDeleteAppointment(doctor, appt)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonRoleMismatch, d.Reason)
}

func TestCanTransitionAppointment(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	_, doctor, receptionist := testActors(1)
	otherDoctor := &model.User{ID: 9, Role: model.RoleDoctor, ClinicID: uintPtr(1)}

	appt := &model.Appointment{ID: 1, DoctorID: doctor.ID, ClinicID: 1, Status: model.StatusPending}
	assert.True(t, engine.CanTransitionAppointment(doctor, appt).Allowed)
	assert.True(t, engine.CanTransitionAppointment(receptionist, appt).Allowed)

	d := engine.CanTransitionAppointment(otherDoctor, appt)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOwnershipMismatch, d.Reason)
}

func TestVisitDecisions(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	ctx := context.Background()
	admin, doctor, receptionist := testActors(1)
	otherDoctor := &model.User{ID: 9, Role: model.RoleDoctor, ClinicID: uintPtr(1)}

	assert.True(t, engine.CanCreateVisit(admin, 42).Allowed)
	assert.True(t, engine.CanCreateVisit(doctor, doctor.ID).Allowed)

	d := engine.CanCreateVisit(doctor, otherDoctor.ID)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOwnershipMismatch, d.Reason)

	d = engine.CanCreateVisit(receptionist, receptionist.ID)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonRoleMismatch, d.Reason)

	visit := &model.Visit{ID: 1, PatientID: 500, DoctorID: doctor.ID, ClinicID: 1, VisitDate: time.Now()}

	dec, err := engine.CanReadVisit(ctx, doctor, visit)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	dec, err = engine.CanReadVisit(ctx, receptionist, visit)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	dec, err = engine.CanReadVisit(ctx, otherDoctor, visit)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, ReasonOwnershipMismatch, dec.Reason)

	assert.True(t, engine.CanUpdateVisit(doctor, visit).Allowed)
	assert.False(t, engine.CanUpdateVisit(otherDoctor, visit).Allowed)
	assert.False(t, engine.CanDeleteVisit(doctor).Allowed)
	assert.True(t, engine.CanDeleteVisit(admin).Allowed)
}

func TestUserDecisions(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	admin, doctor, _ := testActors(1)

	assert.True(t, engine.CanReadUser(admin, doctor.ID).Allowed)
	assert.True(t, engine.CanReadUser(doctor, doctor.ID).Allowed)
	assert.False(t, engine.CanReadUser(doctor, admin.ID).Allowed)

	demote := model.RoleDoctor
	d := engine.CanUpdateUser(admin, admin, &demote)
	assert.False(t, d.Allowed, "admin cannot demote themself")
	assert.Equal(t, ReasonSelfMutation, d.Reason)

	keep := model.RoleAdmin
	assert.True(t, engine.CanUpdateUser(admin, admin, &keep).Allowed)
	assert.True(t, engine.CanUpdateUser(admin, doctor, &demote).Allowed)
	assert.False(t, engine.CanUpdateUser(doctor, admin, nil).Allowed)

	d = engine.CanDeleteUser(admin, admin.ID)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSelfMutation, d.Reason)
	assert.True(t, engine.CanDeleteUser(admin, doctor.ID).Allowed)
	assert.False(t, engine.CanDeleteUser(doctor, admin.ID).Allowed)
}

func TestListScopes(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{})
	admin, doctor, receptionist := testActors(1)
	otherDoctor := &model.User{ID: 9, Role: model.RoleDoctor, ClinicID: uintPtr(2)}

	p1 := &model.Patient{FullName: "A", Phone: "+989121111111", ClinicID: 1, CreatedBy: 3}
	p2 := &model.Patient{FullName: "B", Phone: "+989122222222", ClinicID: 2, CreatedBy: 3}
	require.NoError(t, db.Create(p1).Error)
	require.NoError(t, db.Create(p2).Error)

	require.NoError(t, db.Create(&model.Appointment{PatientID: p1.ID, DoctorID: doctor.ID, ClinicID: 1, AppointmentDate: time.Now()}).Error)
	require.NoError(t, db.Create(&model.Appointment{PatientID: p2.ID, DoctorID: otherDoctor.ID, ClinicID: 2, AppointmentDate: time.Now()}).Error)
	require.NoError(t, db.Create(&model.Visit{PatientID: p2.ID, DoctorID: otherDoctor.ID, ClinicID: 2, VisitDate: time.Now()}).Error)

	countAppointments := func(actor *model.User) int64 {
		var n int64
		require.NoError(t, db.Model(&model.Appointment{}).Scopes(engine.AppointmentScope(actor)).Count(&n).Error)
		return n
	}
	countPatients := func(actor *model.User) int64 {
		var n int64
		require.NoError(t, db.Model(&model.Patient{}).Scopes(engine.PatientScope(actor)).Count(&n).Error)
		return n
	}
	countVisits := func(actor *model.User) int64 {
		var n int64
		require.NoError(t, db.Model(&model.Visit{}).Scopes(engine.VisitScope(actor)).Count(&n).Error)
		return n
	}

	assert.EqualValues(t, 2, countAppointments(admin))
	assert.EqualValues(t, 1, countAppointments(receptionist))
	assert.EqualValues(t, 1, countAppointments(doctor))

	assert.EqualValues(t, 2, countPatients(admin))
	assert.EqualValues(t, 1, countPatients(receptionist))
	assert.EqualValues(t, 1, countPatients(doctor))
	assert.EqualValues(t, 1, countPatients(otherDoctor), "roster includes visit-only patients")

	assert.EqualValues(t, 1, countVisits(admin))
	assert.EqualValues(t, 0, countVisits(doctor))
	assert.EqualValues(t, 1, countVisits(otherDoctor))

	// An unaffiliated receptionist sees nothing.
	orphan := &model.User{ID: 77, Role: model.RoleReceptionist}
	assert.EqualValues(t, 0, countAppointments(orphan))
	assert.EqualValues(t, 0, countPatients(orphan))
}

func TestSingleClinicMode(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, ScopePolicy{SingleClinic: true, ClinicID: 1})

	// In single mode an unaffiliated user still operates in the configured
	// clinic, and every record maps to it regardless of its stored id.
	orphanReceptionist := &model.User{ID: 5, Role: model.RoleReceptionist}
	assert.True(t, engine.CanCreatePatient(orphanReceptionist, 0).Allowed)

	appt := &model.Appointment{ID: 1, DoctorID: 2, ClinicID: 0, Status: model.StatusPending}
	assert.True(t, engine.CanDeleteAppointment(orphanReceptionist, appt).Allowed)
}
