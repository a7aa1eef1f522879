package app

import (
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/config"
	"github.com/dok75/clinic_backend/internal/access"
	"github.com/dok75/clinic_backend/internal/service/appointment"
	"github.com/dok75/clinic_backend/internal/service/auth"
	"github.com/dok75/clinic_backend/internal/service/clinic"
	svcfile "github.com/dok75/clinic_backend/internal/service/file"
	"github.com/dok75/clinic_backend/internal/service/patient"
	"github.com/dok75/clinic_backend/internal/service/questionnaire"
	"github.com/dok75/clinic_backend/internal/service/user"
	"github.com/dok75/clinic_backend/internal/service/visit"
	"github.com/dok75/clinic_backend/pkg/authorize"
	"github.com/dok75/clinic_backend/pkg/email"
	pasetotoken "github.com/dok75/clinic_backend/pkg/paseto"
	s3pkg "github.com/dok75/clinic_backend/pkg/s3"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideAuthService,
		ProvideUserService,
		ProvideClinicService,
		ProvidePatientService,
		ProvideAppointmentService,
		ProvideVisitService,
		ProvideQuestionnaireService,
		ProvideFileService,
		ProvidePasetoManager,
	),
)

func ProvideAuthService(db *gorm.DB, rdb *redis.Client, paseto *pasetotoken.Manager, cfg *config.Config) auth.Service {
	return auth.New(db, rdb, paseto, cfg)
}

func ProvideUserService(db *gorm.DB, engine *access.Engine, authz authorize.IAuthorization, mailer *email.Client) user.Service {
	return user.New(db, engine, authz, mailer)
}

func ProvideClinicService(db *gorm.DB) clinic.Service {
	return clinic.New(db)
}

func ProvidePatientService(db *gorm.DB, engine *access.Engine) patient.Service {
	return patient.New(db, engine)
}

func ProvideAppointmentService(db *gorm.DB, engine *access.Engine, nc *nats.Conn, rdb *redis.Client) appointment.Service {
	return appointment.New(db, engine, nc, rdb)
}

func ProvideVisitService(db *gorm.DB, engine *access.Engine) visit.Service {
	return visit.New(db, engine)
}

func ProvideQuestionnaireService(db *gorm.DB, engine *access.Engine) questionnaire.Service {
	return questionnaire.New(db, engine)
}

func ProvideFileService(db *gorm.DB, engine *access.Engine, s3 *s3pkg.Client) svcfile.Service {
	return svcfile.New(db, engine, s3)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
