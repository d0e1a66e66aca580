package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/erp/invoicing/internal/application/billing"
	einvoiceapp "github.com/erp/invoicing/internal/application/einvoice"
	inventoryapp "github.com/erp/invoicing/internal/application/inventory"
	"github.com/erp/invoicing/internal/infrastructure/cache"
	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/erp/invoicing/internal/infrastructure/efactura"
	"github.com/erp/invoicing/internal/infrastructure/event"
	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/infrastructure/migration"
	"github.com/erp/invoicing/internal/infrastructure/persistence"
	"github.com/erp/invoicing/internal/infrastructure/printing"
	"github.com/erp/invoicing/internal/infrastructure/scheduler"
	"github.com/erp/invoicing/internal/infrastructure/storage"
	"github.com/erp/invoicing/internal/infrastructure/telemetry"
	"github.com/erp/invoicing/internal/interfaces/http/handler"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/erp/invoicing/internal/interfaces/http/router"
	"github.com/erp/invoicing/migrations"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	metricsExportInterval = 15 * time.Second
	shutdownTimeout       = 30 * time.Second
)

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
		_ = log.Sync()
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	otelCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}

	// Logs go to the collector too when telemetry is on
	logProvider, err := telemetry.NewLoggerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = logProvider.Bridge(log)

	log.Info("Starting invoicing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, otelCfg, metricsExportInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeURL,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithIgnoreRecordNotFoundError(true),
	)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			DBName:          cfg.Database.DBName,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	if cfg.Database.AutoMigrate {
		if err := applyMigrations(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	vatRateRepo := persistence.NewGormVATRateRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Redis-backed caches with in-process fallback outside production
	cacheFactory := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	idempotency, err := cacheFactory.CreateIdempotencyStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	taxpayerCache, err := cacheFactory.CreateTaxpayerCache(ctx)
	if err != nil {
		log.Fatal("Failed to create taxpayer cache", zap.Error(err))
	}

	// Document rendering
	documentStore, err := storage.NewDocumentStore(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}
	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.RenderTimeout,
		ExecPath:       cfg.Printing.ChromePath,
		RemoteURL:      cfg.Printing.ChromeURL,
		NoSandbox:      !cfg.IsProduction(),
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	paperSize, ok := printing.ParsePaperSize(cfg.Printing.PaperSize)
	if !ok {
		log.Fatal("Unsupported paper size", zap.String("paper_size", cfg.Printing.PaperSize))
	}
	generator := printing.NewInvoiceDocumentGenerator(renderer, documentStore,
		printing.WithPaperSize(paperSize),
		printing.WithRenderTimeout(cfg.Printing.RenderTimeout),
		printing.WithGeneratorLogger(log),
	)

	// National e-invoicing service and the public fiscal code registry
	gateway := efactura.NewClient(cfg.EInvoice, efactura.WithLogger(log))
	taxpayerLookup := cache.NewCachedTaxpayerLookup(
		efactura.NewTaxpayerClient(cfg.EInvoice.LookupURL, cfg.EInvoice.RequestTimeout, log),
		taxpayerCache,
		cfg.EInvoice.LookupCacheTTL,
		log,
	)

	// Initialize event bus and metrics
	eventBus := event.NewInMemoryEventBus(log)
	invoicingMetrics, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{
		Meter:    meterProvider.Meter("invoicing"),
		Logger:   log,
		LowStock: telemetry.NewGormLowStockCounter(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to register invoicing metrics", zap.Error(err))
	}
	eventBus.Subscribe(invoicingMetrics, invoicingMetrics.EventTypes()...)

	// Background jobs
	jobs := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Workers:       cfg.Jobs.Workers,
		QueueSize:     cfg.Jobs.QueueSize,
		JobTimeout:    cfg.Jobs.JobTimeout,
		RetryAttempts: cfg.Jobs.RetryAttempts,
		RetryDelay:    cfg.Jobs.RetryBackoff,
		MaxRetryDelay: cfg.Jobs.MaxBackoff,
	}, log)
	jobOutbox := scheduler.NewGormJobOutbox(db.DB)
	jobRelay := scheduler.NewJobRelay(jobOutbox, jobs, scheduler.JobRelayConfig{
		PollInterval: cfg.Jobs.RelayInterval,
		BatchSize:    cfg.Jobs.RelayBatch,
		Lease:        cfg.Jobs.Lease,
	}, log)

	// Initialize application services
	resolver := billingapp.NewInvoiceResolver(invoiceRepo, companyRepo, clientRepo, vatRateRepo)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, vatRateRepo, companyRepo, clientRepo, contractRepo, txScope, log)
	invoiceService.SetJobEnqueuer(jobOutbox)
	invoiceService.SetEventPublisher(eventBus)
	documentService := billingapp.NewDocumentService(resolver, generator, invoiceRepo, log)
	vatRateService := billingapp.NewVATRateService(vatRateRepo)
	stockService := inventoryapp.NewStockService(productRepo, movementRepo, movementRepo, log)

	submissionService := einvoiceapp.NewSubmissionService(invoiceRepo, companyRepo, resolver, gateway, log)
	submissionService.SetJobEnqueuer(jobOutbox)
	submissionService.SetIdempotencyStore(idempotency)
	submissionService.SetMetrics(invoicingMetrics)
	statusPoller := einvoiceapp.NewStatusPoller(invoiceRepo, companyRepo, gateway, cfg.Poller.BatchSize, log)
	statusPoller.SetMetrics(invoicingMetrics)
	taxpayerService := einvoiceapp.NewTaxpayerService(taxpayerLookup)

	scheduler.RegisterInvoiceJobs(jobs, documentService, submissionService)
	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start job scheduler", zap.Error(err))
	}
	if err := jobRelay.Start(ctx); err != nil {
		log.Fatal("Failed to start job relay", zap.Error(err))
	}
	pollConfig := scheduler.DefaultStatusPollSchedulerConfig()
	pollConfig.Enabled = cfg.Poller.Enabled
	pollConfig.Interval = cfg.Poller.Interval
	pollScheduler := scheduler.NewStatusPollScheduler(statusPoller, log, pollConfig)
	if err := pollScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start status poller", zap.Error(err))
	}

	// HTTP
	lookupLimiter := middleware.NewRateLimiter(cfg.HTTP.LookupRateLimit, time.Minute)
	defer lookupLimiter.Stop()

	health := handler.NewHealthHandler(cfg.App.Name).
		AddCheck("database", db.Ping).
		AddCheck("redis", cacheFactory.Ping)

	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         log,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing: []otelgin.Option{
			otelgin.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
		},
		Tenants: middleware.TenantValidatorFunc(func(ctx context.Context, tenantID uuid.UUID) error {
			_, err := companyRepo.FindByID(ctx, tenantID)
			return err
		}),
		Health: health,
	}, router.Handlers{
		Invoices:    handler.NewInvoiceHandler(invoiceService, submissionService),
		Stock:       handler.NewStockHandler(stockService),
		VATRates:    handler.NewVATRateHandler(vatRateService),
		Taxpayers:   handler.NewTaxpayerHandler(taxpayerService),
		LookupLimit: middleware.RateLimitByKey(lookupLimiter, middleware.TenantKey),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := pollScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping status poller", zap.Error(err))
	}
	if err := jobRelay.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping job relay", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping job scheduler", zap.Error(err))
	}
	stop()

	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing traces", zap.Error(err))
	}

	log.Info("Server exited gracefully")

	// Flush logs last so the shutdown records above reach the collector
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing logs", zap.Error(err))
	}
}

// applyMigrations runs the embedded schema migrations against the pool
func applyMigrations(db *persistence.Database, log *zap.Logger) error {
	m, err := migration.NewEmbedded(db.SQL(), migrations.FS, log)
	if err != nil {
		return err
	}
	// Close would also close the shared *sql.DB, so the migrator is left open.
	return m.Up()
}
