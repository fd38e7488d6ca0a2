package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	classificationhandler "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification/handler"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/chunk"
	ingesthandler "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/handler"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/repository"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/service"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/reporting"
	reportinghandler "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/reporting/handler"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/config"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/cron"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/db"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/metrics"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Repositories
	DatasetRepo  repository.DatasetRepository
	MappingStore classification.Store

	// Services
	Registry         *classification.Registry
	Reassembler      *chunk.Reassembler
	IngestService    *service.IngestService
	ReportingService *reporting.Service
	Archive          storage.Storage
	Scheduler        *cron.Scheduler

	// Handlers
	IngestHandler         *ingesthandler.IngestHandler
	ClassificationHandler *classificationhandler.ClassificationHandler
	ReportingHandler      *reportinghandler.ReportingHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories()

	// Initialize services
	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() {
	d.DatasetRepo = repository.NewPostgresDatasetRepository(d.DB.Pool)
	d.MappingStore = classification.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	if len(d.Config.Auth.JWTSecret) == 0 {
		return fmt.Errorf("jwt secret is required")
	}

	// Classification mapping, seeded on first start
	d.Registry = classification.NewRegistry(d.MappingStore, d.Logger)
	if err := d.Registry.Load(ctx); err != nil {
		return err
	}

	// Chunk slot table; evictions feed the metrics
	d.Reassembler = chunk.New(d.Config.Ingest.ChunkSlots, d.Config.Ingest.ChunkIdleTimeout,
		chunk.WithLogger(d.Logger),
		chunk.WithEvictHook(func(uploadID string, received, total int) {
			d.Metrics.AddEvictions(1)
		}),
	)

	inferencer := sniffer.NewInferencer(sniffer.DefaultRules, d.Config.Ingest.SecondaryCurrency)
	d.IngestService = service.NewIngestService(d.DatasetRepo, normalizer.New(inferencer), d.Reassembler, d.Logger).
		WithMetrics(d.Metrics)

	// Raw upload archive
	archive, err := storage.New(ctx, &storage.Config{
		Type:               storage.StorageType(d.Config.Storage.Type),
		LocalPath:          d.Config.Storage.LocalPath,
		GCSBucket:          d.Config.Storage.GCSBucket,
		GCSCredentialsFile: d.Config.Storage.GCSCredentialsFile,
		Prefix:             d.Config.Storage.Prefix,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.Archive = archive
	d.IngestService.WithArchive(archive)

	d.ReportingService = reporting.NewService(d.DatasetRepo, d.Registry, d.Logger)

	// Background jobs
	d.Scheduler = cron.NewScheduler(d.IngestService, d.Config.Ingest.SweepSchedule, d.Logger).
		WithMappingRefresh(d.Registry, d.Config.Ingest.MappingRefreshSchedule)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.IngestHandler = ingesthandler.NewIngestHandler(d.IngestService, d.Logger)
	d.ClassificationHandler = classificationhandler.NewClassificationHandler(d.Registry, d.IngestService, d.Config.Auth.AdminRole, d.Logger)
	d.ReportingHandler = reportinghandler.NewReportingHandler(d.ReportingService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if closer, ok := d.Archive.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			d.Logger.Warn("failed to close file storage", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
