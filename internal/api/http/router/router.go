package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/dok75/clinic_backend/config"
	"github.com/dok75/clinic_backend/internal/api/http/handler"
	"github.com/dok75/clinic_backend/internal/api/http/middleware"
	"github.com/dok75/clinic_backend/internal/service/appointment"
	"github.com/dok75/clinic_backend/internal/service/auth"
	"github.com/dok75/clinic_backend/internal/service/clinic"
	"github.com/dok75/clinic_backend/internal/service/file"
	"github.com/dok75/clinic_backend/internal/service/patient"
	"github.com/dok75/clinic_backend/internal/service/questionnaire"
	"github.com/dok75/clinic_backend/internal/service/user"
	"github.com/dok75/clinic_backend/internal/service/visit"
	"github.com/dok75/clinic_backend/pkg/authorize"
	pasetotoken "github.com/dok75/clinic_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg              *config.Config
	DB               *gorm.DB
	Redis            *redis.Client
	Auth             authorize.IAuthorization
	PasetoMgr        *pasetotoken.Manager
	AuthSvc          auth.Service
	UserSvc          user.Service
	ClinicSvc        clinic.Service
	PatientSvc       patient.Service
	AppointmentSvc   appointment.Service
	VisitSvc         visit.Service
	QuestionnaireSvc questionnaire.Service
	FileSvc          file.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Redis)
	loadActor := middleware.LoadActor(r.p.DB)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc, r.p.UserSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	clinicH := handler.NewClinicHandler(r.p.ClinicSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	visitH := handler.NewVisitHandler(r.p.VisitSvc)
	questionnaireH := handler.NewQuestionnaireHandler(r.p.QuestionnaireSvc)
	fileH := handler.NewFileHandler(r.p.FileSvc)
	rbacH := handler.NewRBACHandler(r.p.Auth)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired, loadActor)
	r.registerUserRoutes(api, userH, authRequired, loadActor, requirePerm)
	r.registerClinicRoutes(api, clinicH, authRequired, loadActor, requirePerm)
	r.registerPatientRoutes(api, patientH, questionnaireH, fileH, authRequired, loadActor, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, authRequired, loadActor, requirePerm)
	r.registerVisitRoutes(api, visitH, authRequired, loadActor, requirePerm)
	r.registerQuestionnaireRoutes(api, questionnaireH, authRequired, loadActor, requirePerm)
	r.registerFileRoutes(api, fileH, authRequired, loadActor, requirePerm)
	r.registerRBACRoutes(api, rbacH, authRequired, loadActor, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
