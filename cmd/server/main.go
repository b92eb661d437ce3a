package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/ordoflow/internal"
	"github.com/DukeRupert/ordoflow/internal/cache"
	"github.com/DukeRupert/ordoflow/internal/email"
	"github.com/DukeRupert/ordoflow/internal/handler"
	"github.com/DukeRupert/ordoflow/internal/jobs"
	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/DukeRupert/ordoflow/internal/middleware"
	"github.com/DukeRupert/ordoflow/internal/report"
	"github.com/DukeRupert/ordoflow/internal/repository"
	"github.com/DukeRupert/ordoflow/internal/scheduler"
	"github.com/DukeRupert/ordoflow/internal/seed"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/DukeRupert/ordoflow/internal/session"
	"github.com/DukeRupert/ordoflow/internal/storage"
	"github.com/DukeRupert/ordoflow/internal/validation"
	"github.com/DukeRupert/ordoflow/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize Redis (catalog cache and wizard sessions)
	rdb, err := cache.NewRedis(ctx, cfg.RedisUrl)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()
	logger.Info("Redis ready")

	// ==========================================================================
	// Infrastructure
	// ==========================================================================

	store, err := storage.New(storage.Config{
		Provider: cfg.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
			Region:          "auto",
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	sender := email.Sender{
		From:       cfg.EmailFrom,
		FromName:   cfg.EmailFromName,
		AdminEmail: cfg.AdminEmail,
	}

	var emailService email.EmailService
	switch cfg.EmailProvider {
	case "ses":
		sesService, err := email.NewSESEmailService(ctx, cfg.SESRegion, sender, logger)
		if err != nil {
			return fmt.Errorf("email service initialization failed: %w", err)
		}
		emailService = sesService
	default:
		smtpService, err := email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, sender, logger)
		if err != nil {
			return fmt.Errorf("email service initialization failed: %w", err)
		}
		emailService = smtpService
	}
	logger.Info("Email ready", "provider", cfg.EmailProvider)

	// ==========================================================================
	// Services
	// ==========================================================================

	catalogCache := cache.NewJSON(rdb, "ordoflow:catalog", cfg.CatalogCacheTTL)
	sessions := session.NewStore(rdb, cfg.SessionTTL)

	catalogService := service.NewCatalogService(repo, catalogCache, logger)
	wizardService := service.NewWizardService(sessions, catalogService, logger)
	leadService := service.NewLeadService(repo, logger)
	reportService := service.NewReportService(
		leadService,
		emailService,
		report.NewPDFGenerator(),
		service.NewStorageArchiver(store),
		repo,
		service.ReportConfig{
			AppURL:       cfg.AppURL,
			ContactURL:   cfg.ContactURL,
			EmailTimeout: cfg.EmailTimeout,
		},
		logger,
	)
	importer := seed.NewImporter(db, logger)

	// ==========================================================================
	// Background processing
	// ==========================================================================

	var jobStats handler.JobStats
	var bgWorker *worker.Worker
	if cfg.WorkerEnabled {
		workerConfig := worker.DefaultConfig().WithOverrides(cfg.WorkerConcurrency, cfg.WorkerPollInterval, cfg.WorkerJobTimeout)
		bgWorker, err = worker.New(db, repo, workerConfig, logger.With("component", "worker"))
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		bgWorker.Register(jobs.NewSendClientReportHandler(reportService, logger))
		bgWorker.Register(jobs.NewArchiveReportHandler(reportService, logger))
		bgWorker.Start(ctx)
		jobStats = bgWorker
		logger.Info("Worker started", "concurrency", workerConfig.Concurrency)
	}

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(leadService, repo, repo, scheduler.Config{
			SweepSpec:  cfg.ReportSweepSpec,
			RetryAfter: cfg.ReportRetryAfter,
		}, logger)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("scheduler initialization failed: %w", err)
		}
		logger.Info("Scheduler started", "sweep", cfg.ReportSweepSpec)
	}

	// ==========================================================================
	// Middleware
	// ==========================================================================

	isSecure := cfg.Env != "development"
	validator := validation.New()

	corsMw := middleware.NewCORSMiddleware(cfg.AllowedOrigins)
	var limiter middleware.Limiter
	if cfg.RateLimitStore == "redis" {
		limiter = middleware.NewRedisLimiter(rdb, "ordoflow:ratelimit", cfg.LeadRateLimit, cfg.LeadRateWindow)
	} else {
		limiter = middleware.NewRateLimiter(cfg.LeadRateLimit, cfg.LeadRateWindow, logger)
	}
	// Keys are namespaced by route, so one limiter serves both groups.
	leadLimitMw := middleware.NewRateLimitMiddleware(limiter, "leads", logger)
	reportLimitMw := middleware.NewRateLimitMiddleware(limiter, "report", logger)
	adminMw := middleware.NewAdminAuthMiddleware(cfg.AdminUsername, cfg.AdminPasswordHash, logger)
	setupMw := middleware.NewSetupKeyMiddleware(cfg.SetupKey, logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure, cfg.FrameAncestors)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	handler.NewHealthHandler(map[string]handler.Check{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}, logger).RegisterRoutes(mux)

	handler.NewCatalogHandler(catalogService, logger).RegisterRoutes(mux)
	handler.NewWizardHandler(wizardService, isSecure, logger).RegisterRoutes(mux)
	handler.NewLeadHandler(leadService, validator, logger).RegisterRoutes(mux, corsMw.Handler, leadLimitMw.Limit)
	handler.NewReportHandler(leadService, reportService, validator, logger).RegisterRoutes(mux, corsMw.Handler, reportLimitMw.Limit)
	handler.NewAdminHandler(leadService, catalogService, importer, reportService, jobStats, logger).RegisterRoutes(mux, adminMw.RequireAdmin, setupMw.Require)

	// Prometheus metrics (optionally behind basic auth)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Archived reports on local disk are downloaded through the app.
	if disk, ok := store.(*storage.Disk); ok {
		files := http.StripPrefix("/files/", http.FileServer(http.Dir(disk.Root())))
		mux.Handle("GET /files/", adminMw.RequireAdmin(files))
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	// Metrics sits inside logging so it sees the request the mux routes
	// and can label by r.Pattern.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           middleware.Stack(loggingMw.Handler, metrics.Middleware, securityMw.Handler)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if sched != nil {
		sched.Stop()
	}
	if bgWorker != nil {
		bgWorker.Stop()
	}
	stop()

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
