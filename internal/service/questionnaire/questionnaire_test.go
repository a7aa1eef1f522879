package questionnaire

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/model"
)

type fixture struct {
	db      *gorm.DB
	svc     Service
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
		doctor: &model.User{Username: "dr.one", PasswordHash: "x", FullName: "Doctor One", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true},
	}
	require.NoError(t, db.Create(f.doctor).Error)
	f.patient = &model.Patient{FullName: "Jane Roe", Phone: "+989121234567", ClinicID: 1, CreatedBy: f.doctor.ID}
	require.NoError(t, db.Create(f.patient).Error)
	return f
}

func TestCreateQuestionnaire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, f.doctor, CreateRequest{
		PatientID: f.patient.ID,
		Sections: Sections{
			model.QuestionnaireDentistry: datatypes.JSONMap{"last_visit": "2024", "bleeding_gums": true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, f.doctor.ID, q.DoctorID)
	assert.NotNil(t, q.Dentistry)
	assert.Nil(t, q.Nutrition)

	_, err = f.svc.Create(ctx, f.doctor, CreateRequest{
		PatientID: f.patient.ID,
		Sections:  Sections{"astrology": datatypes.JSONMap{"sign": "libra"}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Create(ctx, f.doctor, CreateRequest{PatientID: f.patient.ID})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOnePerAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := &model.Appointment{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, ClinicID: 1,
		AppointmentDate: time.Now(), Status: model.StatusPending,
	}
	require.NoError(t, f.db.Create(appt).Error)

	sections := Sections{model.QuestionnaireGeneral: datatypes.JSONMap{"smoker": false}}

	_, err := f.svc.Create(ctx, f.doctor, CreateRequest{
		PatientID: f.patient.ID, AppointmentID: &appt.ID, Sections: sections,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.doctor, CreateRequest{
		PatientID: f.patient.ID, AppointmentID: &appt.ID, Sections: sections,
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestReadFollowsRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Roster link: one appointment joining the doctor and the patient.
	require.NoError(t, f.db.Create(&model.Appointment{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, ClinicID: 1,
		AppointmentDate: time.Now(), Status: model.StatusPending,
	}).Error)

	q, err := f.svc.Create(ctx, f.doctor, CreateRequest{
		PatientID: f.patient.ID,
		Sections:  Sections{model.QuestionnaireGeneral: datatypes.JSONMap{"smoker": false}},
	})
	require.NoError(t, err)

	clinicID := uint(1)
	stranger := &model.User{Username: "dr.two", PasswordHash: "x", FullName: "Doctor Two", Role: model.RoleDoctor, ClinicID: &clinicID, IsActive: true}
	require.NoError(t, f.db.Create(stranger).Error)

	var denied *access.DeniedError
	_, err = f.svc.GetByID(ctx, stranger, q.ID)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonOwnershipMismatch, denied.Reason)

	qs, err := f.svc.ListByPatient(ctx, f.doctor, f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, qs, 1)
}
