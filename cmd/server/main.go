package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"fitforge/internal/cache"
	"fitforge/internal/config"
	"fitforge/internal/events"
	"fitforge/internal/identity"
	"fitforge/internal/logger"
	"fitforge/internal/metrics"
	"fitforge/internal/middleware"
	"fitforge/internal/payments"
	"fitforge/internal/routes"
	"fitforge/internal/services"
	"fitforge/internal/validator"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Structured logging to stdout and a rotating file
	logFile := logger.Setup(cfg.Log)
	defer logFile.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(ctx, cfg.Database, logger.GormLogger())
	if err != nil {
		return err
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			logrus.WithError(err).Warn("failed to close database")
		}
	}()

	metrics.Register(prometheus.DefaultRegisterer)

	redisClient, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		logrus.WithError(err).Warn("redis unavailable, caching disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	c := cache.New(redisClient, "fitforge:")

	bus, err := events.NewFromConfig(cfg.Events, events.NewLogger(logrus.StandardLogger()))
	if err != nil {
		return err
	}
	defer bus.Close()

	verifier, err := identity.NewFirebase(ctx, cfg.Auth.FirebaseCredentials)
	if err != nil {
		return err
	}
	if cfg.Stripe.SecretKey == "" {
		logrus.Warn("STRIPE_SECRET_KEY not set, payment intents disabled")
	}
	gateway := payments.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	tokens := middleware.NewTokenMaker(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	v := validator.New()

	accessLog, accessFile := logger.AccessLog(cfg.Log)
	defer accessFile.Close()

	router := routes.SetupRouter(routes.Deps{
		DB:           db,
		Tokens:       tokens,
		Gatherer:     prometheus.DefaultGatherer,
		Auth:         services.NewAuthService(db, tokens, verifier, v),
		Applications: services.NewApplicationService(db, v, bus, c),
		Catalog:      services.NewCatalogService(db, v, c, cfg.Redis.FeaturedTTL),
		Slots:        services.NewSlotService(db, v),
		Community:    services.NewCommunityService(db, v),
		Payments:     services.NewPaymentService(db, gateway, v, bus, c),
		AccessLog:    accessLog,
		AuthRate:     cfg.Auth.RateLimit,
		AuthBurst:    cfg.Auth.RateBurst,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("server running at %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
