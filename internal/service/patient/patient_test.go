package patient

import (
	"context"
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
		db:           db,
		svc:          New(db, access.NewEngine(db, access.ScopePolicy{})),
		admin:        &model.User{Username: "admin", PasswordHash: "x", FullName: "Admin", Role: model.RoleAdmin, IsActive: true},
		doctor:       &model.User{Username: "dr.one", PasswordHash: "x", FullName: "Doctor One", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true},
		receptionist: &model.User{Username: "front", PasswordHash: "x", FullName: "Front", Role: model.RoleReceptionist, ClinicID: &clinicID, IsActive: true},
	}
	for _, u := range []*model.User{f.admin, f.doctor, f.receptionist} {
		require.NoError(t, db.Create(u).Error)
	}
	return f
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09121234567", "+989121234567"},
		{"0912 123 4567", "+989121234567"},
		{"+98 912 123 4567", "+989121234567"},
		{"not a number", "notanumber"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestCreateAssignsPatientNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, existed, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "Jane Roe", Phone: "09121234567", ClinicID: 1,
	})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, model.FormatPatientNumber(p.ID), p.PatientNumber)
	assert.Equal(t, "+989121234567", p.Phone)

	var stored model.Patient
	require.NoError(t, f.db.First(&stored, p.ID).Error)
	assert.Equal(t, p.PatientNumber, stored.PatientNumber)
}

func TestCreateDeduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, existed, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "Jane Roe", Phone: "09121234567", ClinicID: 1,
	})
	require.NoError(t, err)
	require.False(t, existed)

	// Same identity, different casing and phone formatting.
	again, existed, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "JANE roe", Phone: "+98 912 123 4567", ClinicID: 1,
	})
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, again.ID)

	// Same name, different phone: a new patient.
	other, existed, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "Jane Roe", Phone: "09129999999", ClinicID: 1,
	})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, first.ID, other.ID)

	var n int64
	require.NoError(t, f.db.Model(&model.Patient{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Create(ctx, f.receptionist, CreateRequest{Phone: "09121234567", ClinicID: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.Create(ctx, f.receptionist, CreateRequest{FullName: "Jane", ClinicID: 1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConcurrentCreateUniqueNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	patients := make([]*model.Patient, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
				FullName: "Patient " + string(rune('A'+i)),
				Phone:    NormalizePhone("0912000000" + string(rune('0'+i%10))),
				ClinicID: 1,
			})
			if err == nil {
				patients[i] = p
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range patients {
		if p == nil {
			continue
		}
		require.NotEmpty(t, p.PatientNumber)
		assert.False(t, seen[p.PatientNumber], "patient number %s assigned twice", p.PatientNumber)
		seen[p.PatientNumber] = true
	}
}

func TestDoctorReadRequiresRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "Jane Roe", Phone: "09121234567", ClinicID: 1,
	})
	require.NoError(t, err)

	var denied *access.DeniedError
	_, err = f.svc.GetByID(ctx, f.doctor, p.ID)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonOwnershipMismatch, denied.Reason)

	require.NoError(t, f.db.Create(&model.Appointment{
		PatientID: p.ID, DoctorID: f.doctor.ID, ClinicID: 1,
		AppointmentDate: time.Now(), Status: model.StatusPending,
	}).Error)

	got, err := f.svc.GetByID(ctx, f.doctor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jane, _, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "Jane Roe", Phone: "09121234567", ClinicID: 1,
	})
	require.NoError(t, err)
	_, _, err = f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "John Doe", Phone: "09129999999", ClinicID: 1,
	})
	require.NoError(t, err)

	res, err := f.svc.List(ctx, f.receptionist, ListRequest{Search: "jane"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, jane.ID, res.Data[0].ID)

	res, err = f.svc.List(ctx, f.receptionist, ListRequest{Search: "0912 123 4567"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, jane.ID, res.Data[0].ID)

	res, err = f.svc.List(ctx, f.receptionist, ListRequest{Search: jane.PatientNumber})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	res, err = f.svc.List(ctx, f.receptionist, ListRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.EqualValues(t, 2, res.Total)
}

func TestDeleteDeactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "Jane Roe", Phone: "09121234567", ClinicID: 1,
	})
	require.NoError(t, err)

	var denied *access.DeniedError
	err = f.svc.Delete(ctx, f.receptionist, p.ID)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonRoleMismatch, denied.Reason)

	require.NoError(t, f.svc.Delete(ctx, f.admin, p.ID))

	var stored model.Patient
	require.NoError(t, f.db.First(&stored, p.ID).Error)
	assert.False(t, stored.IsActive, "record survives as inactive")

	res, err := f.svc.List(ctx, f.receptionist, ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestHistoryMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _, err := f.svc.Create(ctx, f.receptionist, CreateRequest{
		FullName: "Jane Roe", Phone: "09121234567", ClinicID: 1,
	})
	require.NoError(t, err)

	old := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(&model.HistoryEntry{
		PatientID: p.ID, RecordedAt: old, Diagnosis: "flu", Notes: "rest",
	}).Error)
	require.NoError(t, f.db.Create(&model.HistoryEntry{
		PatientID: p.ID, RecordedAt: recent, Diagnosis: "sprain",
	}).Error)

	h, err := f.svc.History(ctx, f.receptionist, p.ID)
	require.NoError(t, err)
	require.Len(t, h.Entries, 2)
	assert.Equal(t, "sprain", h.Entries[0].Diagnosis)
	assert.Equal(t, "[2025-06-02] sprain\n[2024-03-01] flu / rest", h.Text)
}
