package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/room-booking-api/api/swagger"
	"github.com/noah-isme/room-booking-api/internal/handler"
	"github.com/noah-isme/room-booking-api/internal/middleware"
	"github.com/noah-isme/room-booking-api/internal/repository"
	"github.com/noah-isme/room-booking-api/internal/service"
	"github.com/noah-isme/room-booking-api/pkg/cache"
	"github.com/noah-isme/room-booking-api/pkg/config"
	"github.com/noah-isme/room-booking-api/pkg/database"
	"github.com/noah-isme/room-booking-api/pkg/jobs"
	"github.com/noah-isme/room-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/room-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/room-booking-api/pkg/middleware/requestid"
)

// @title Room Booking API
// @version 1.0.0
// @description Campus room booking with multi-level approval
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	// redis is optional: without it the availability grid is simply not cached
	var cacheRepo *repository.CacheRepository
	if cfg.Availability.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis, 3*time.Second)
		if err != nil {
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	auditWriter := service.NewAuditWriter(auditRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
	})
	auditWriter.Start(context.Background())
	defer auditWriter.Stop()
	roomRepo := repository.NewRoomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	bookingRepo := repository.NewBookingRepository(db, cfg.Database.TxTimeout)

	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, true)
	}

	authSvc := service.NewAuthService(userRepo, auditWriter, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	bookingSvc := service.NewBookingService(bookingRepo, userRepo, auditWriter, validate, logr,
		service.WithBookingCache(cacheSvc),
		service.WithBookingMetrics(metrics),
	)
	availabilitySvc := service.NewAvailabilityService(roomRepo, scheduleRepo, bookingRepo, cacheSvc, service.AvailabilityOptions{
		Location:  cfg.Availability.Location(),
		FirstHour: cfg.Availability.FirstHour,
		LastHour:  cfg.Availability.LastHour,
		CacheTTL:  cfg.Availability.CacheTTL,
	}, logr)
	exportSvc := service.NewBookingExportService(bookingSvc, service.ExportConfig{
		Enabled:  cfg.Exports.Enabled,
		Location: cfg.Availability.Location(),
	}, logr, nil, nil)

	probes := map[string]handler.Probe{"postgres": db.PingContext}
	if cacheRepo != nil {
		probes["redis"] = cacheRepo.Ping
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, middleware.JWT(authSvc), handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Bookings:     handler.NewBookingHandler(bookingSvc, exportSvc),
		Approvals:    handler.NewApprovalHandler(bookingSvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Metrics:      handler.NewMetricsHandler(metrics, probes),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
