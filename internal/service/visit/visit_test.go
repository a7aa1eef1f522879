package visit

import (
	"context"
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
	db      *gorm.DB
	svc     Service
	admin   *model.User
	doctor  *model.User
	patient *model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.Migrate(db))

	clinicID := uint(1)
	f := &fixture{
		db:     db,
		svc:    New(db, access.NewEngine(db, access.ScopePolicy{})),
		admin:  &model.User{Username: "admin", PasswordHash: "x", FullName: "Admin", Role: model.RoleAdmin, IsActive: true},
		doctor: &model.User{Username: "dr.one", PasswordHash: "x", FullName: "Doctor One", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true},
	}
	require.NoError(t, db.Create(f.admin).Error)
	require.NoError(t, db.Create(f.doctor).Error)
	f.patient = &model.Patient{FullName: "Jane Roe", Phone: "+989121234567", ClinicID: 1, CreatedBy: f.admin.ID}
	require.NoError(t, db.Create(f.patient).Error)
	return f
}

func TestRecordWalkInVisit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	visit, err := f.svc.Record(ctx, f.doctor, RecordRequest{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		Complaint:   "toothache",
		Diagnosis:   "caries",
		DoctorNotes: "filling scheduled",
	})
	require.NoError(t, err)
	assert.Nil(t, visit.AppointmentID, "walk-in visit has no appointment")
	assert.Equal(t, f.patient.ClinicID, visit.ClinicID)

	// The history entry lands in the same transaction.
	var entries []model.HistoryEntry
	require.NoError(t, f.db.Where("patient_id = ?", f.patient.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].VisitID)
	assert.Equal(t, visit.ID, *entries[0].VisitID)

	// Recording establishes the roster link.
	engine := access.NewEngine(f.db, access.ScopePolicy{})
	owns, err := engine.OwnsPatient(ctx, f.doctor, f.patient)
	require.NoError(t, err)
	assert.True(t, owns)
}

func TestRecordValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, f.doctor, RecordRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Record(ctx, f.doctor, RecordRequest{PatientID: 9999, DoctorID: f.doctor.ID, Diagnosis: "x"})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestRecordAccessControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinicID := uint(1)
	receptionist := &model.User{Username: "front", PasswordHash: "x", FullName: "Front", Role: model.RoleReceptionist, ClinicID: &clinicID, IsActive: true}
	other := &model.User{Username: "dr.two", PasswordHash: "x", FullName: "Doctor Two", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true}
	require.NoError(t, f.db.Create(receptionist).Error)
	require.NoError(t, f.db.Create(other).Error)

	var denied *access.DeniedError

	_, err := f.svc.Record(ctx, receptionist, RecordRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID, Diagnosis: "x"})
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonRoleMismatch, denied.Reason)

	_, err = f.svc.Record(ctx, other, RecordRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID, Diagnosis: "x"})
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonOwnershipMismatch, denied.Reason)
}

func TestUpdateKeepsDiagnosis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	visit, err := f.svc.Record(ctx, f.doctor, RecordRequest{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, Diagnosis: "caries",
	})
	require.NoError(t, err)

	notes := "follow-up in two weeks"
	_, err = f.svc.Update(ctx, f.doctor, visit.ID, UpdateRequest{DoctorNotes: &notes})
	require.NoError(t, err)

	var stored model.Visit
	require.NoError(t, f.db.First(&stored, visit.ID).Error)
	assert.Equal(t, "caries", stored.Diagnosis)
	assert.Equal(t, notes, stored.DoctorNotes)
}

func TestDeleteAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	visit, err := f.svc.Record(ctx, f.doctor, RecordRequest{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, Diagnosis: "caries", VisitDate: timePtr(time.Now()),
	})
	require.NoError(t, err)

	var denied *access.DeniedError
	err = f.svc.Delete(ctx, f.doctor, visit.ID)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonRoleMismatch, denied.Reason)

	require.NoError(t, f.svc.Delete(ctx, f.admin, visit.ID))

	_, err = f.svc.GetByID(ctx, f.admin, visit.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func timePtr(t time.Time) *time.Time { return &t }
