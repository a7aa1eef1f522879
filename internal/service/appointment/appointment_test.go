package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
)

type fixture struct {
	db           *gorm.DB
	svc          Service
	admin        *model.User
	doctor       *model.User
	receptionist *model.User
	patient      *model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single pooled connection keeps every session on the same
	// in-memory database and serializes concurrent writers.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.Migrate(db))

	clinicID := uint(1)
	f := &fixture{
		db:           db,
		svc:          New(db, access.NewEngine(db, access.ScopePolicy{}), nil, nil),
		admin:        &model.User{Username: "admin", PasswordHash: "x", FullName: "Admin", Role: model.RoleAdmin},
		doctor:       &model.User{Username: "dr.one", PasswordHash: "x", FullName: "Doctor One", Role: model.RoleDoctor, ClinicID: &clinicID},
		receptionist: &model.User{Username: "front", PasswordHash: "x", FullName: "Front Desk", Role: model.RoleReceptionist, ClinicID: &clinicID},
	}
	require.NoError(t, db.Create(&model.Clinic{Name: "Main"}).Error)
	for _, u := range []*model.User{f.admin, f.doctor, f.receptionist} {
		u.IsActive = true
		require.NoError(t, db.Create(u).Error)
	}
	f.patient = &model.Patient{FullName: "Jane Roe", Phone: "+989121234567", ClinicID: 1, CreatedBy: f.receptionist.ID}
	require.NoError(t, db.Create(f.patient).Error)
	return f
}

func (f *fixture) book(t *testing.T, actor *model.User) *model.Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), actor, BookRequest{
		PatientID:       f.patient.ID,
		DoctorID:        f.doctor.ID,
		AppointmentDate: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return appt
}

func TestBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, f.receptionist)
	assert.Equal(t, model.StatusPending, appt.Status)
	assert.Equal(t, f.patient.ClinicID, appt.ClinicID)
	require.NotNil(t, appt.CreatedBy)
	assert.Equal(t, f.receptionist.ID, *appt.CreatedBy)

	// "scheduled" is accepted as an alias but stored as pending.
	appt, err := f.svc.Book(ctx, f.receptionist, BookRequest{
		PatientID:       f.patient.ID,
		DoctorID:        f.doctor.ID,
		AppointmentDate: time.Now().Add(2 * time.Hour),
		Status:          "scheduled",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, appt.Status)

	var stored model.Appointment
	require.NoError(t, f.db.First(&stored, appt.ID).Error)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.receptionist, BookRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Book(ctx, f.receptionist, BookRequest{
		PatientID: 9999, DoctorID: f.doctor.ID, AppointmentDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = f.svc.Book(ctx, f.receptionist, BookRequest{
		PatientID: f.patient.ID, DoctorID: 9999, AppointmentDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	// The receptionist is not a bookable doctor.
	_, err = f.svc.Book(ctx, f.receptionist, BookRequest{
		PatientID: f.patient.ID, DoctorID: f.receptionist.ID, AppointmentDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = f.svc.Book(ctx, f.receptionist, BookRequest{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, AppointmentDate: time.Now(), Status: "completed",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBookAccessControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinicID := uint(1)
	other := &model.User{Username: "dr.two", PasswordHash: "x", FullName: "Doctor Two", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true}
	require.NoError(t, f.db.Create(other).Error)

	// A doctor may only book for themself.
	_, err := f.svc.Book(ctx, other, BookRequest{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, AppointmentDate: time.Now(),
	})
	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonOwnershipMismatch, denied.Reason)

	_, err = f.svc.Book(ctx, f.doctor, BookRequest{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, AppointmentDate: time.Now(),
	})
	assert.NoError(t, err)
}

func TestChangeStatusAllowList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, f.receptionist)

	got, err := f.svc.ChangeStatus(ctx, f.receptionist, appt.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	// Completion never goes through a plain status change.
	_, err = f.svc.ChangeStatus(ctx, f.receptionist, appt.ID, "completed")
	assert.ErrorIs(t, err, ErrValidation)

	// Unknown status.
	_, err = f.svc.ChangeStatus(ctx, f.receptionist, appt.ID, "done")
	assert.ErrorIs(t, err, ErrValidation)

	// confirmed -> pending is not an allowed edge, and the row is untouched.
	_, err = f.svc.ChangeStatus(ctx, f.receptionist, appt.ID, "pending")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.StatusConfirmed, invalid.From)
	assert.Equal(t, model.StatusPending, invalid.To)

	var stored model.Appointment
	require.NoError(t, f.db.First(&stored, appt.ID).Error)
	assert.Equal(t, model.StatusConfirmed, stored.Status)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, f.receptionist)
	require.NoError(t, f.svc.Cancel(ctx, f.receptionist, appt.ID))

	var stored model.Appointment
	require.NoError(t, f.db.First(&stored, appt.ID).Error)
	assert.Equal(t, model.StatusCancelled, stored.Status)

	// Cancelled is terminal.
	err := f.svc.Cancel(ctx, f.receptionist, appt.ID)
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)

	// A completed appointment cannot be cancelled either.
	appt = f.book(t, f.receptionist)
	_, err = f.svc.Complete(ctx, f.doctor, appt.ID, CompleteRequest{Diagnosis: "flu"})
	require.NoError(t, err)
	err = f.svc.Cancel(ctx, f.receptionist, appt.ID)
	assert.ErrorAs(t, err, &invalid)
}

func TestNotFoundBeforeForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinicID := uint(2)
	outsider := &model.User{Username: "dr.out", PasswordHash: "x", FullName: "Outsider", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true}
	require.NoError(t, f.db.Create(outsider).Error)

	// A missing id reports not-found even to an actor who could never
	// have read it.
	_, err := f.svc.GetByID(ctx, outsider, 424242)
	assert.ErrorIs(t, err, ErrNotFound)

	// An existing but foreign record reports forbidden with the predicate.
	appt := f.book(t, f.receptionist)
	_, err = f.svc.GetByID(ctx, outsider, appt.ID)
	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonOwnershipMismatch, denied.Reason)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, f.receptionist)

	err := f.svc.Delete(ctx, f.doctor, appt.ID)
	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonRoleMismatch, denied.Reason)

	require.NoError(t, f.svc.Delete(ctx, f.receptionist, appt.ID))
	err = f.db.First(&model.Appointment{}, appt.ID).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, f.receptionist)
	_, err := f.svc.ChangeStatus(ctx, f.receptionist, appt.ID, "confirmed")
	require.NoError(t, err)

	visit, err := f.svc.Complete(ctx, f.doctor, appt.ID, CompleteRequest{
		Complaint:   "headache",
		Diagnosis:   "migraine",
		DoctorNotes: "rest and hydration",
	})
	require.NoError(t, err)
	require.NotNil(t, visit.AppointmentID)
	assert.Equal(t, appt.ID, *visit.AppointmentID)
	assert.Equal(t, f.patient.ID, visit.PatientID)
	assert.Equal(t, f.doctor.ID, visit.DoctorID)

	var stored model.Appointment
	require.NoError(t, f.db.First(&stored, appt.ID).Error)
	assert.Equal(t, model.StatusCompleted, stored.Status)

	// Exactly one history entry was prepended for the patient.
	var entries []model.HistoryEntry
	require.NoError(t, f.db.Where("patient_id = ?", f.patient.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "migraine", entries[0].Diagnosis)
	assert.Contains(t, entries[0].Line(), "migraine / rest and hydration")

	// Completing again fails and no second visit appears.
	_, err = f.svc.Complete(ctx, f.doctor, appt.ID, CompleteRequest{Diagnosis: "again"})
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)

	var n int64
	require.NoError(t, f.db.Model(&model.Visit{}).Where("appointment_id = ?", appt.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCompleteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, f.receptionist)
	_, err := f.svc.Complete(ctx, f.doctor, appt.ID, CompleteRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	// Cancelled appointments cannot be completed.
	require.NoError(t, f.svc.Cancel(ctx, f.receptionist, appt.ID))
	_, err = f.svc.Complete(ctx, f.doctor, appt.ID, CompleteRequest{Diagnosis: "late"})
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.StatusCancelled, invalid.From)
}

func TestCompleteConcurrentDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, f.receptionist)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Complete(ctx, f.doctor, appt.ID, CompleteRequest{Diagnosis: "race"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one completion wins")

	var n int64
	require.NoError(t, f.db.Model(&model.Visit{}).Where("appointment_id = ?", appt.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n, "exactly one visit exists")
}

func TestListScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinicID := uint(1)
	other := &model.User{Username: "dr.two", PasswordHash: "x", FullName: "Doctor Two", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true}
	require.NoError(t, f.db.Create(other).Error)

	f.book(t, f.receptionist)
	_, err := f.svc.Book(ctx, f.receptionist, BookRequest{
		PatientID: f.patient.ID, DoctorID: other.ID, AppointmentDate: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, f.admin, ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.List(ctx, f.doctor, ListRequest{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.doctor.ID, mine[0].DoctorID)

	front, err := f.svc.List(ctx, f.receptionist, ListRequest{})
	require.NoError(t, err)
	assert.Len(t, front, 2)

	// Status filter goes through the alias table.
	scheduled, err := f.svc.List(ctx, f.admin, ListRequest{Status: strPtr("scheduled")})
	require.NoError(t, err)
	assert.Len(t, scheduled, 2)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a1 := f.book(t, f.receptionist)
	a2 := f.book(t, f.receptionist)
	f.book(t, f.receptionist)

	_, err := f.svc.ChangeStatus(ctx, f.receptionist, a1.ID, "confirmed")
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, f.receptionist, a2.ID))

	st, err := f.svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.Total)
	assert.EqualValues(t, 1, st.Pending)
	assert.EqualValues(t, 1, st.Confirmed)
	assert.EqualValues(t, 1, st.Cancelled)
	assert.EqualValues(t, 0, st.Completed)
}

func strPtr(s string) *string { return &s }
