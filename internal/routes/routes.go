package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"fitforge/internal/controllers"
	"fitforge/internal/middleware"
	"fitforge/internal/services"
)

// Deps is everything the router hands out to handlers.
type Deps struct {
	DB       *gorm.DB
	Tokens   *middleware.TokenMaker
	Gatherer prometheus.Gatherer

	Auth         *services.AuthService
	Applications *services.ApplicationService
	Catalog      *services.CatalogService
	Slots        *services.SlotService
	Community    *services.CommunityService
	Payments     *services.PaymentService

	// AccessLog is optional; nil skips access logging.
	AccessLog gin.HandlerFunc
	AuthRate  float64
	AuthBurst int
}

type handlers struct {
	auth         *controllers.AuthController
	applications *controllers.ApplicationController
	classes      *controllers.ClassController
	trainers     *controllers.TrainerController
	slots        *controllers.SlotController
	community    *controllers.CommunityController
	payments     *controllers.PaymentController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.CORS(), middleware.Metrics())
	if d.AccessLog != nil {
		r.Use(d.AccessLog)
	}

	h := handlers{
		auth:         controllers.NewAuthController(d.Auth),
		applications: controllers.NewApplicationController(d.Applications),
		classes:      controllers.NewClassController(d.Catalog),
		trainers:     controllers.NewTrainerController(d.Catalog),
		slots:        controllers.NewSlotController(d.Slots),
		community:    controllers.NewCommunityController(d.Community),
		payments:     controllers.NewPaymentController(d.Payments),
	}

	r.GET("/health", controllers.Health(d.DB))
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	PublicRoutes(r, h)
	AuthRoutes(r, h, d)
	MemberRoutes(r, h, d.Tokens)
	TrainerRoutes(r, h, d.Tokens)
	AdminRoutes(r, h, d.Tokens)

	return r
}
