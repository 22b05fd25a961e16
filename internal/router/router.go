package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmaulana/rh-tracker-api/internal/config"
	authhandler "github.com/rmaulana/rh-tracker-api/internal/handler/auth"
	"github.com/rmaulana/rh-tracker-api/internal/handler/autocheck"
	"github.com/rmaulana/rh-tracker-api/internal/handler/health"
	notificationhandler "github.com/rmaulana/rh-tracker-api/internal/handler/notification"
	producthandler "github.com/rmaulana/rh-tracker-api/internal/handler/product"
	"github.com/rmaulana/rh-tracker-api/internal/middleware"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	authservice "github.com/rmaulana/rh-tracker-api/internal/service/auth"
	notificationservice "github.com/rmaulana/rh-tracker-api/internal/service/notification"
	productservice "github.com/rmaulana/rh-tracker-api/internal/service/product"
	"github.com/rmaulana/rh-tracker-api/internal/service/sweep"
	"github.com/rmaulana/rh-tracker-api/internal/whatsapp"
	"github.com/rmaulana/rh-tracker-api/pkg/auth"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

// Dependencies carries everything the router needs to assemble the API.
type Dependencies struct {
	Config           *config.Config
	DB               *sqlx.DB
	Tokens           *auth.JWTManager
	Calendar         rh.Calendar
	AuthService      authservice.Service
	ProductService   productservice.Service
	Notifier         notificationservice.Service
	Sweeper          *sweep.Service
	ProductRepo      repository.ProductRepository
	NotificationRepo repository.NotificationRepository
	Logger           *logger.Logger
}

// Setup builds the gin engine with all routes and middleware attached.
func Setup(deps *Dependencies) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger(deps.Logger))

	limiter := middleware.NewRateLimiter(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst)
	r.Use(limiter.Middleware())

	health.NewHandler(deps.DB).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api/v1")
	protected := r.Group("/api/v1")
	protected.Use(middleware.Auth(deps.Tokens))

	authhandler.NewHandler(deps.AuthService, deps.Logger).RegisterRoutes(public, protected)
	producthandler.NewHandler(deps.ProductService, deps.Logger).RegisterRoutes(protected)
	notificationhandler.NewHandler(deps.Notifier, deps.Sweeper, deps.Logger).RegisterRoutes(protected)
	autocheck.NewHandler(
		deps.Sweeper,
		deps.ProductRepo,
		deps.NotificationRepo,
		deps.Calendar,
		deps.Config.App.CronSecret,
		deps.Logger,
	).RegisterRoutes(public)

	return r
}

// registerValidators installs the custom whatsapp binding tag on gin's
// validator engine.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("whatsapp", func(fl validator.FieldLevel) bool {
			return whatsapp.ValidNumber(fl.Field().String())
		})
	}
}
