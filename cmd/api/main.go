package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/firstclass-tutorials/fct-api/api/swagger"
	"github.com/firstclass-tutorials/fct-api/internal/handler"
	"github.com/firstclass-tutorials/fct-api/internal/middleware"
	"github.com/firstclass-tutorials/fct-api/internal/repository"
	"github.com/firstclass-tutorials/fct-api/internal/service"
	"github.com/firstclass-tutorials/fct-api/pkg/cache"
	"github.com/firstclass-tutorials/fct-api/pkg/config"
	"github.com/firstclass-tutorials/fct-api/pkg/database"
	"github.com/firstclass-tutorials/fct-api/pkg/export"
	"github.com/firstclass-tutorials/fct-api/pkg/logger"
	corsmiddleware "github.com/firstclass-tutorials/fct-api/pkg/middleware/cors"
	reqidmiddleware "github.com/firstclass-tutorials/fct-api/pkg/middleware/requestid"
)

// @title First Class Tutorials API
// @version 1.0.0
// @description Student registration and payment lifecycle backend
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	mongoClient, err := database.NewMongo(ctx, cfg.Mongo)
	cancel()
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to mongodb", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.Mongo.Database)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	}

	studentRepo := repository.NewStudentRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.Bootstrap(bootstrapCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logr.Sugar().Fatalw("failed to bootstrap admin", "error", err)
	}
	bootstrapCancel()

	studentSvc := service.NewStudentService(studentRepo, cacheSvc, metricsSvc, validate, logr)
	paymentSvc := service.NewPaymentService(studentRepo, cacheSvc, metricsSvc, logr, service.PaymentConfig{
		LookupRetries:    cfg.Payments.LookupRetries,
		LookupRetryDelay: cfg.Payments.LookupRetryDelay,
	})
	dashboardSvc := service.NewDashboardService(studentRepo, cacheSvc, logr, cfg.Dashboard.CacheTTL)
	exportSvc := service.NewExportService(studentSvc, export.NewCSVExporter(), export.NewPDFExporter("First Class Tutorials"), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, paymentSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
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
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := mongoClient.Ping(ctx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/students", studentHandler.Register)
	api.GET("/students/:id", studentHandler.Get)
	api.PATCH("/students/:id", studentHandler.UpdatePayment)

	admin := api.Group("", middleware.JWT(authSvc))
	admin.GET("/students", studentHandler.List)
	admin.GET("/students/export", exportHandler.StudentsCSV)
	admin.GET("/students/:id/receipt", exportHandler.Receipt)
	admin.GET("/dashboard/summary", dashboardHandler.Summary)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
