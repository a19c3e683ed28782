package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/college-admin-api/api/swagger"
	"github.com/noah-isme/college-admin-api/internal/handler"
	"github.com/noah-isme/college-admin-api/internal/middleware"
	"github.com/noah-isme/college-admin-api/internal/repository"
	"github.com/noah-isme/college-admin-api/internal/service"
	"github.com/noah-isme/college-admin-api/migrations"
	"github.com/noah-isme/college-admin-api/pkg/cache"
	"github.com/noah-isme/college-admin-api/pkg/config"
	"github.com/noah-isme/college-admin-api/pkg/database"
	"github.com/noah-isme/college-admin-api/pkg/export"
	"github.com/noah-isme/college-admin-api/pkg/jobs"
	"github.com/noah-isme/college-admin-api/pkg/logger"
	mailer "github.com/noah-isme/college-admin-api/pkg/mail"
	corsmiddleware "github.com/noah-isme/college-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/college-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/college-admin-api/pkg/storage"
	"github.com/noah-isme/college-admin-api/pkg/tracing"
)

// @title College Admin API
// @version 1.0.0
// @description Multi-tenant college administration: sign-in, admissions and fee ledger
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, migrations.FS, "up"); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	app, err := buildApp(cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to wire application", zap.Error(err))
	}
	app.queue.Start(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.Admissions.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))

	r.GET("/health", app.handlers.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "postgres"})
			return
		}
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), app.handlers, app.auth)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           tracing.Handler(cfg, r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	app.queue.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracing shutdown", zap.Error(err))
	}
}

type application struct {
	handlers handler.Handlers
	auth     *service.AuthService
	metrics  *service.MetricsService
	queue    *jobs.Queue
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	colleges := repository.NewCollegeRepository(db)
	identities := repository.NewIdentityRepository(db)
	profiles := repository.NewProfileRepository(db)
	roles := repository.NewRoleRepository(db)
	students := repository.NewStudentRepository(db)
	admissions := repository.NewAdmissionRepository(db)
	fees := repository.NewFeeRepository(db)
	limiter := repository.NewRateLimitRepository(redisClient)
	denylist := repository.NewTokenDenylistRepository(redisClient)
	cacheRepo := repository.NewCacheRepository(redisClient, "college-admin", logr)

	documents, err := storage.NewLocalStorage(cfg.Admissions.StorageDir, cfg.Admissions.Bucket)
	if err != nil {
		return nil, fmt.Errorf("init document storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Admissions.SignedURLSecret, cfg.Admissions.SignedURLTTL)

	identitySvc := service.NewIdentityService(identities, denylist, logr, service.IdentityConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.Identity.SingleSession,
		MinPasswordLength:  cfg.Identity.MinPasswordLength,
	})
	roleSvc := service.NewRoleService(roles, colleges, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Colleges.CacheTTL, logr, true)
	collegeSvc := service.NewCollegeService(colleges, identitySvc, roleSvc, cacheSvc, cfg.Colleges.CacheTTL, validate, logr)
	authSvc := service.NewAuthService(identitySvc, roleSvc, colleges, profiles, limiter, metrics, validate, logr, service.AuthConfig{
		SignInPerMinute: cfg.RateLimit.SignInPerMinute,
	})
	userSvc := service.NewUserService(identitySvc, roles, roleSvc, profiles, validate, logr)

	mux := jobs.NewMux()
	queue := jobs.NewQueue("notifications", mux.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notifications := service.NewNotificationService(queue, newMailSender(cfg, logr), metrics, cfg.Notifications.Enabled, logr)
	mux.Handle(service.JobTypeSendEmail, notifications.HandleJob)

	admissionSvc := service.NewAdmissionService(admissions, students, identitySvc, roleSvc, colleges, profiles, documents, signer, notifications, limiter, metrics, validate, logr, service.AdmissionConfig{
		DefaultStudentPassword: cfg.Identity.DefaultStudentPassword,
		PublicBaseURL:          cfg.Admissions.PublicBaseURL,
		MaxFileSizeBytes:       cfg.Admissions.MaxFileSizeBytes,
		AllowedMIMEs:           cfg.Admissions.AllowedMIMEs,
		SubmissionsPerHour:     cfg.RateLimit.SubmissionsPerHour,
	})
	feeSvc := service.NewFeeService(fees, students, metrics, validate, logr, export.NewCSVExporter(), export.NewPDFExporter())

	return &application{
		handlers: handler.Handlers{
			Auth:      handler.NewAuthHandler(authSvc),
			College:   handler.NewCollegeHandler(collegeSvc),
			User:      handler.NewUserHandler(userSvc),
			Admission: handler.NewAdmissionHandler(admissionSvc),
			Fee:       handler.NewFeeHandler(feeSvc),
			Metrics:   handler.NewMetricsHandler(metrics),
		},
		auth:    authSvc,
		metrics: metrics,
		queue:   queue,
	}, nil
}

func newMailSender(cfg *config.Config, logr *zap.Logger) mailer.Sender {
	from := mail.Address{Name: cfg.Mail.FromName, Address: cfg.Mail.FromEmail}
	if cfg.Mail.Provider == config.MailProviderSendgrid && cfg.Mail.SendgridAPIKey != "" {
		return mailer.NewSendgridSender(cfg.Mail.SendgridAPIKey, cfg.Mail.AppName, from)
	}
	return mailer.NewConsoleSender(cfg.Mail.AppName, from, logr)
}
