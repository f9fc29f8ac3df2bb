package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ivms-api/api/swagger"
	"github.com/noah-isme/ivms-api/internal/handler"
	"github.com/noah-isme/ivms-api/internal/middleware"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/repository"
	"github.com/noah-isme/ivms-api/internal/service"
	"github.com/noah-isme/ivms-api/pkg/cache"
	"github.com/noah-isme/ivms-api/pkg/config"
	"github.com/noah-isme/ivms-api/pkg/database"
	"github.com/noah-isme/ivms-api/pkg/jobs"
	"github.com/noah-isme/ivms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ivms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ivms-api/pkg/middleware/requestid"
	"github.com/noah-isme/ivms-api/pkg/storage"
)

// @title IVMS API
// @version 1.0.0
// @description Industrial visit management API
// @BasePath /
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewUploadStore(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload store", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	cleanupQueue := jobs.NewQueue("file-cleanup", func(ctx context.Context, job jobs.Job) error {
		path, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		outcome := uploads.Remove(path)
		if outcome.Status == storage.CleanupFailed {
			return fmt.Errorf("remove %s: %s", outcome.File, outcome.Reason)
		}
		return nil
	}, jobs.QueueConfig{Workers: 2, MaxRetries: 3, RetryDelay: 5 * time.Second, Logger: logr})
	cleanupQueue.Start(ctx)
	defer cleanupQueue.Stop()

	metricsSvc := service.NewMetricsService()
	metricsSvc.RegisterDBStats(db)

	// Repositories
	packageRepo := repository.NewPackageRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	undertakingRepo := repository.NewUndertakingRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, metricsSvc, logr)

	// Services
	authSvc := service.NewAuthService(cfg.JWT, logr)
	baseURL := cfg.Uploads.PublicBaseURL
	packageSvc := service.NewPackageService(packageRepo, uploads, cacheRepo, cleanupQueue, nil, logr, baseURL)
	reviewSvc := service.NewReviewService(reviewRepo, packageRepo, userRepo, cacheRepo, nil, logr, baseURL)
	voteSvc := service.NewVoteService(voteRepo, userRepo, cacheRepo, nil, logr, cfg.Votes.StatsCacheTTL)
	requestSvc := service.NewRequestService(requestRepo, userRepo, nil, logr)
	undertakingSvc := service.NewUndertakingService(undertakingRepo, uploads, signer, userRepo, nil, logr)

	// Handlers
	policy := handler.UploadPolicy{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}
	packageHandler := handler.NewPackageHandler(packageSvc, policy)
	feedbackHandler := handler.NewFeedbackHandler(reviewSvc)
	voteHandler := handler.NewVoteHandler(voteSvc, metricsSvc, cfg.Votes.ExportEnabled)
	requestHandler := handler.NewRequestHandler(requestSvc, metricsSvc)
	undertakingHandler := handler.NewUndertakingHandler(undertakingSvc, uploads, signer, metricsSvc, policy)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authed := api.Group("", middleware.JWT(authSvc))

	// Package catalogue
	api.GET("/packages", packageHandler.List)
	api.GET("/packages/:id", packageHandler.Get)
	authed.POST("/packages",
		middleware.RequireRoles(models.RoleIndustry, models.RoleAdmin), packageHandler.Create)
	authed.PUT("/packages/:id",
		middleware.RequireRoles(models.RoleIndustry, models.RoleAdmin), packageHandler.Update)

	// Reviews
	authed.POST("/packages/:id/feedback", feedbackHandler.Add)
	authed.PUT("/packages/:id/feedback/:reviewId", feedbackHandler.Update)
	authed.DELETE("/packages/:id/feedback/:reviewId", feedbackHandler.Delete)

	// Votes
	authed.POST("/votes", middleware.RequireRoles(models.RoleStudent), voteHandler.Cast)
	authed.GET("/votes/:studentId", voteHandler.Status)
	authed.GET("/votes-details",
		middleware.RequireRoles(models.RoleHOD, models.RoleAdmin), voteHandler.Statistics)
	authed.GET("/votes-details/export",
		middleware.RequireRoles(models.RoleHOD, models.RoleAdmin), voteHandler.Export)

	// Visit requests
	authed.POST("/requests", requestHandler.Submit)
	authed.GET("/requests",
		middleware.RequireRoles(models.RoleHOD, models.RoleAdmin, models.RoleIndustry), requestHandler.List)
	authed.GET("/requests/check/:userId", middleware.RBAC("HOD", "ADMIN", "SELF"), requestHandler.Check)
	authed.GET("/requests/user/:userId", middleware.RBAC("HOD", "ADMIN", "SELF"), requestHandler.ListByUser)
	authed.PATCH("/requests/:id/status",
		middleware.RequireRoles(models.RoleHOD, models.RoleAdmin), requestHandler.UpdateStatus)
	authed.DELETE("/requests/:id",
		middleware.RequireRoles(models.RoleAdmin), requestHandler.Delete)

	// Undertakings
	authed.POST("/undertakings", undertakingHandler.Submit)
	authed.GET("/undertakings/:id", undertakingHandler.Get)
	authed.PUT("/undertakings/:id", undertakingHandler.Update)
	authed.DELETE("/undertakings/:id",
		middleware.RequireRoles(models.RoleHOD, models.RoleAdmin), undertakingHandler.Delete)
	authed.GET("/undertakings/:id/signature", undertakingHandler.DownloadSignature)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
