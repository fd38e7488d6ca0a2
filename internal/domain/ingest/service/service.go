// Package service orchestrates normalization, chunk reassembly, persistence
// and raw archiving of uploads.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/chunk"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/repository"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/metrics"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/storage"
)

// Upload modes for metrics.
const (
	ModeSingle  = "single"
	ModeChunked = "chunked"
)

var tracer = otel.Tracer("ingest.service")

// ChunkResult is the outcome of one chunk. Dataset is set when the chunk
// completed its upload.
type ChunkResult struct {
	Progress *chunk.Progress
	Dataset  *normalizer.Dataset
}

// IngestService turns raw rows into stored datasets.
type IngestService struct {
	repo       repository.DatasetRepository
	normalizer *normalizer.Normalizer
	chunks     *chunk.Reassembler
	archive    storage.Storage  // Optional: nil disables raw archiving
	metrics    *metrics.Metrics // Optional
	logger     *slog.Logger
	now        func() time.Time
}

// NewIngestService creates a new ingest service
func NewIngestService(repo repository.DatasetRepository, norm *normalizer.Normalizer, chunks *chunk.Reassembler, logger *slog.Logger) *IngestService {
	return &IngestService{
		repo:       repo,
		normalizer: norm,
		chunks:     chunks,
		logger:     logger,
		now:        time.Now,
	}
}

// WithArchive archives the raw rows of every stored dataset.
func (s *IngestService) WithArchive(st storage.Storage) *IngestService {
	s.archive = st
	return s
}

// WithMetrics records upload metrics.
func (s *IngestService) WithMetrics(m *metrics.Metrics) *IngestService {
	s.metrics = m
	return s
}

// Upload normalizes rows and replaces the active dataset of ft. Nothing is
// stored when normalization fails.
func (s *IngestService) Upload(ctx context.Context, uploadedBy string, ft filetype.FileType, rows []parser.Record) (*normalizer.Dataset, error) {
	return s.process(ctx, uploadedBy, ft, rows, ModeSingle)
}

// UploadChunk buffers one chunk and processes the upload once every chunk
// has arrived.
func (s *IngestService) UploadChunk(ctx context.Context, uploadedBy string, c chunk.Chunk) (*ChunkResult, error) {
	if !c.FileType.Valid() {
		return nil, fmt.Errorf("%w: %s", filetype.ErrUnknownFileType, c.FileType)
	}

	ctx, span := tracer.Start(ctx, "UploadChunk", trace.WithAttributes(
		attribute.String("upload.id", c.UploadID),
		attribute.Int("chunk.index", c.ChunkIndex),
		attribute.Int("chunk.rows", len(c.Rows)),
	))
	defer span.End()

	progress, err := s.chunks.Receive(ctx, c)
	s.metrics.SetPending(s.chunks.Pending())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("chunk rejected",
			slog.String("upload_id", c.UploadID),
			slog.Int("chunk_index", c.ChunkIndex),
			slog.Any("error", err),
		)
		return nil, err
	}

	result := &ChunkResult{Progress: progress}
	if !progress.Complete {
		s.logger.Debug("chunk buffered",
			slog.String("upload_id", c.UploadID),
			slog.Int("received", progress.Received),
			slog.Int("total", progress.Total),
		)
		return result, nil
	}

	ds, err := s.process(ctx, uploadedBy, progress.FileType, progress.Rows, ModeChunked)
	if err != nil {
		return nil, err
	}
	result.Dataset = ds
	return result, nil
}

func (s *IngestService) process(ctx context.Context, uploadedBy string, ft filetype.FileType, rows []parser.Record, mode string) (*normalizer.Dataset, error) {
	ctx, span := tracer.Start(ctx, "Normalize", trace.WithAttributes(
		attribute.String("file.type", string(ft)),
		attribute.String("upload.mode", mode),
		attribute.Int("rows", len(rows)),
	))
	defer span.End()

	ds, err := s.normalizer.Normalize(ft, rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveUpload(string(ft), mode, metrics.OutcomeRejected, 0, 0)
		s.logger.Warn("upload rejected",
			slog.String("file_type", string(ft)),
			slog.Int("rows", len(rows)),
			slog.Any("error", err),
		)
		return nil, err
	}

	ds.ID = uuid.New()
	ds.UploadedBy = uploadedBy
	ds.CreatedAt = s.now().UTC()

	for _, skip := range ds.Skipped {
		s.logger.Debug("row skipped",
			slog.String("file_type", string(ft)),
			slog.Int("row", skip.Row),
			slog.String("reason", skip.Reason),
		)
	}

	if err := s.repo.Store(ctx, ds); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to store %s dataset: %w", ft, err)
	}

	accepted := ds.RowCount - len(ds.Skipped)
	s.metrics.ObserveUpload(string(ft), mode, metrics.OutcomeAccepted, accepted, len(ds.Skipped))
	span.SetAttributes(attribute.String("dataset.id", ds.ID.String()))

	s.logger.Info("dataset stored",
		slog.String("dataset_id", ds.ID.String()),
		slog.String("file_type", string(ft)),
		slog.String("mode", mode),
		slog.Int("rows", ds.RowCount),
		slog.Int("skipped", len(ds.Skipped)),
	)

	s.archiveRows(ctx, ds, rows)
	return ds, nil
}

// archiveRows stores the raw rows next to the dataset. Failures are logged
// and never fail the upload.
func (s *IngestService) archiveRows(ctx context.Context, ds *normalizer.Dataset, rows []parser.Record) {
	if s.archive == nil {
		return
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		s.logger.Warn("failed to encode raw rows", slog.String("dataset_id", ds.ID.String()), slog.Any("error", err))
		return
	}

	info, err := s.archive.Upload(ctx, string(ds.FileType), ds.ID.String()+".json", "application/json", bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("failed to archive raw rows", slog.String("dataset_id", ds.ID.String()), slog.Any("error", err))
		return
	}
	s.logger.Debug("raw rows archived",
		slog.String("dataset_id", ds.ID.String()),
		slog.String("path", info.Path),
		slog.Int64("bytes", info.Size),
	)
}

// Latest returns the active dataset of ft, or nil.
func (s *IngestService) Latest(ctx context.Context, ft filetype.FileType) (*normalizer.Dataset, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("%w: %s", filetype.ErrUnknownFileType, ft)
	}
	return s.repo.FetchLatestActive(ctx, ft)
}

// SweepChunks drops stalled chunked uploads. It is run by the scheduler.
func (s *IngestService) SweepChunks() int {
	evicted := s.chunks.Sweep(s.now())
	pending := s.chunks.Pending()
	s.metrics.SetPending(pending)
	if evicted > 0 {
		s.logger.Info("swept stalled uploads", slog.Int("evicted", evicted), slog.Int("pending", pending))
	}
	return evicted
}
