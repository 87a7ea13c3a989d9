package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	groupapp "github.com/farmsupport/vsla/internal/application/group"
	ledgerapp "github.com/farmsupport/vsla/internal/application/ledger"
	loanapp "github.com/farmsupport/vsla/internal/application/loan"
	meetingapp "github.com/farmsupport/vsla/internal/application/meeting"
	shareoutapp "github.com/farmsupport/vsla/internal/application/shareout"
	socialfundapp "github.com/farmsupport/vsla/internal/application/socialfund"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/farmsupport/vsla/internal/infrastructure/auth"
	"github.com/farmsupport/vsla/internal/infrastructure/cache"
	"github.com/farmsupport/vsla/internal/infrastructure/config"
	"github.com/farmsupport/vsla/internal/infrastructure/event"
	"github.com/farmsupport/vsla/internal/infrastructure/logger"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence"
	"github.com/farmsupport/vsla/internal/infrastructure/telemetry"
	"github.com/farmsupport/vsla/internal/interfaces/http/handler"
	"github.com/farmsupport/vsla/internal/interfaces/http/middleware"
	"github.com/farmsupport/vsla/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			VSLA Ledger API
//	@version		1.0
//	@description	Savings group meeting ingestion, loans, social fund and cycle share-out

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting VSLA ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing and OTLP metrics
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database, logging through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(cfg.Log.Level == "debug"))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Warn("Schema created by auto-migrate; use cmd/migrate in production")
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        cfg.Database.Driver,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	// Idempotency store shared by the HTTP guard and event deduplication
	store, err := cache.NewStoreFactory(cfg.Idempotency.Backend, cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Business metrics, fed by domain events and a periodic loan gauge
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:      meterProvider.Meter("vsla"),
		Logger:     log,
		Provider:   telemetry.NewGormLoanExposureProvider(db.DB),
		CycleLimit: cfg.Telemetry.LoanGaugeCycleSize,
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.LoanGaugeInterval)
	defer businessMetrics.Stop()

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	metricsHandler := event.NewIdempotentHandler(event.NewMetricsHandler(businessMetrics), store, log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: cfg.Idempotency.Enabled,
		}))
	eventBus.Subscribe(metricsHandler)
	log.Info("Event handlers registered", zap.Strings("metrics_events", metricsHandler.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	scope := persistence.NewGormTransactionScope(db.DB)
	ledgerService := ledgerapp.NewService(scope, log)
	loanService := loanapp.NewService(scope, ledgerService, log)
	socialFundService := socialfundapp.NewService(scope, log)
	processor := meetingapp.NewProcessor(scope, ledgerService, loanService, socialFundService, log)
	processor.SetTimeout(cfg.Processing.MeetingTimeout)
	gateway := meetingapp.NewIngestionGateway(scope, processor, log)
	shareoutService := shareoutapp.NewService(scope, shareout.Policy{
		ClampNegativePayout: cfg.Shareout.ClampNegativePayout,
	}, log)
	groupService := groupapp.NewService(scope, log)

	// Inject event bus into services that publish events
	loanService.SetEventPublisher(eventBus)
	socialFundService.SetEventPublisher(eventBus)
	processor.SetEventPublisher(eventBus)
	shareoutService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Meetings:   handler.NewMeetingHandler(gateway, processor, meetingapp.NewQueryService(scope)),
		Loans:      handler.NewLoanHandler(loanService),
		SocialFund: handler.NewSocialFundHandler(socialFundService),
		Ledger:     handler.NewLedgerHandler(ledgerService),
		Shareouts:  handler.NewShareoutHandler(shareoutService),
		Groups:     handler.NewGroupHandler(groupService),
		System:     handler.NewSystemHandler(db, telemetry.ServiceVersion),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Logger - Log requests with the request ID
	// 3. Recovery - Catch panics
	// 4. Tracing - Server span, annotated after the handler ran
	// 5. Metrics - Prometheus request counters
	// 6. Security, CORS, body limit and request deadline
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())

	if cfg.Telemetry.PrometheusEnabled {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to access connection pool", zap.Error(err))
		}
		registry := telemetry.NewPrometheusRegistry(sqlDB, cfg.Database.DBName)
		engine.Use(middleware.Metrics(registry))
		engine.GET("/metrics", gin.WrapH(registry.Handler()))
	}

	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	// Probes (outside API versioning and authentication)
	engine.GET("/health", handlers.System.Health)
	engine.GET("/ready", handlers.System.Ready)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	engine.GET(r.Prefix()+"/health", handlers.System.Health)

	jwtService := auth.NewJWTService(cfg.JWT)
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		rateLimiter.StartCleanup(ctx, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		r.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Idempotency.Enabled {
		r.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  store,
			TTL:    cfg.Idempotency.TTL,
			Logger: log,
		}))
	}

	router.RegisterAll(r, handlers).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
