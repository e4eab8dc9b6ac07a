package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"order-service/internal/handler"
	"order-service/internal/middleware"
	"order-service/internal/service"
	"order-service/pkg/config"
	"order-service/pkg/database"
	"order-service/pkg/jwtutil"
	"order-service/pkg/logger"
	"order-service/pkg/mailer"
	"order-service/pkg/validator"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync() //nolint:errcheck
	log.Info("Starting order service...", cfg.LogFields()...)

	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	db, err := database.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	var sender mailer.Sender
	if cfg.Email.APIKey != "" {
		sender = mailer.NewSendGridSender(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
		log.Info("SendGrid email sender enabled", zap.String("from", cfg.Email.FromEmail))
	} else {
		sender = mailer.NewLogSender(log)
		log.Warn("SENDGRID_API_KEY not set, invoice emails will only be logged")
	}

	v := validator.New()
	j := jwtutil.NewJWTUtil(&cfg.JWT)

	invoices := service.NewInvoiceService(db, cfg.Order.TaxRate, log)
	emails := service.NewEmailService(db, sender, cfg.Email.MaxAttempts, log)
	services := handler.Services{
		Auth:     service.NewAuthService(db, j, v, log),
		Clients:  service.NewClientService(db, v, log),
		Products: service.NewProductService(db, v, log),
		Orders:   service.NewOrderService(db, invoices, emails, v, cfg.Order.StrictTransitions, log),
		Invoices: invoices,
		Emails:   emails,
		Reports:  service.NewReportService(db),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := services.Auth.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Fatal("Failed to bootstrap admin user", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = v

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(middleware.SecureHeaders(cfg.IsProduction()))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(middleware.MetricsMiddleware)

	// Public routes - no authentication required
	e.GET("/health", handler.NewHealthHandler(db).Check)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	handler.RegisterRoutes(e, services, j, handler.RouteOptions{
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
	})

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
