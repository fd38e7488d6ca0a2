package handler

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/apierr"
	v1 "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1/dashboardv1connect"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/chunk"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/service"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/interceptors"
)

var _ dashboardv1connect.IngestServiceHandler = (*IngestHandler)(nil)

// IngestHandler implements the IngestService RPC handlers
type IngestHandler struct {
	svc    *service.IngestService
	logger *slog.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(svc *service.IngestService, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{svc: svc, logger: logger}
}

// Upload normalizes a complete batch and replaces the active dataset.
func (h *IngestHandler) Upload(
	ctx context.Context,
	req *connect.Request[v1.UploadRequest],
) (*connect.Response[v1.UploadResponse], error) {
	userID, ok := interceptors.GetUserIDFromContext(ctx)
	if !ok {
		return nil, apierr.Unauthenticated()
	}

	ft, err := filetype.Parse(req.Msg.FileType)
	if err != nil {
		return nil, apierr.ToConnect(err)
	}

	ds, err := h.svc.Upload(ctx, userID, ft, req.Msg.Data)
	if err != nil {
		return nil, apierr.ToConnect(err)
	}

	return connect.NewResponse(&v1.UploadResponse{Dataset: summarize(ds)}), nil
}

// UploadChunk buffers one slice of a large upload.
func (h *IngestHandler) UploadChunk(
	ctx context.Context,
	req *connect.Request[v1.UploadChunkRequest],
) (*connect.Response[v1.UploadChunkResponse], error) {
	userID, ok := interceptors.GetUserIDFromContext(ctx)
	if !ok {
		return nil, apierr.Unauthenticated()
	}

	ft, err := filetype.Parse(req.Msg.FileType)
	if err != nil {
		return nil, apierr.ToConnect(err)
	}

	res, err := h.svc.UploadChunk(ctx, userID, chunk.Chunk{
		UploadID:    req.Msg.UploadID,
		ChunkIndex:  req.Msg.ChunkIndex,
		TotalChunks: req.Msg.TotalChunks,
		FileType:    ft,
		Rows:        req.Msg.ChunkData,
	})
	if err != nil {
		return nil, apierr.ToConnect(err)
	}

	resp := &v1.UploadChunkResponse{
		UploadID: res.Progress.UploadID,
		Received: res.Progress.Received,
		Total:    res.Progress.Total,
		Complete: res.Progress.Complete,
	}
	if res.Dataset != nil {
		summary := summarize(res.Dataset)
		resp.Dataset = &summary
	}
	return connect.NewResponse(resp), nil
}

// GetLatestDataset returns the active dataset of a file type. The dataset is
// nil when nothing has been uploaded.
func (h *IngestHandler) GetLatestDataset(
	ctx context.Context,
	req *connect.Request[v1.GetLatestDatasetRequest],
) (*connect.Response[v1.GetLatestDatasetResponse], error) {
	if _, ok := interceptors.GetUserIDFromContext(ctx); !ok {
		return nil, apierr.Unauthenticated()
	}

	ft, err := filetype.Parse(req.Msg.FileType)
	if err != nil {
		return nil, apierr.ToConnect(err)
	}

	ds, err := h.svc.Latest(ctx, ft)
	if err != nil {
		h.logger.Error("failed to fetch dataset", slog.String("file_type", string(ft)), slog.Any("error", err))
		return nil, apierr.ToConnect(err)
	}
	return connect.NewResponse(&v1.GetLatestDatasetResponse{Dataset: ds}), nil
}

func summarize(ds *normalizer.Dataset) v1.DatasetSummary {
	skipped := ds.Skipped
	if skipped == nil {
		skipped = []normalizer.SkippedRow{}
	}
	return v1.DatasetSummary{
		ID:          ds.ID.String(),
		FileType:    string(ds.FileType),
		RowCount:    ds.RowCount,
		Records:     len(ds.Transactions) + len(ds.Lines) + len(ds.Opportunities),
		Skipped:     skipped,
		Schema:      ds.Schema,
		Months:      ds.Months,
		Categories:  ds.Categories,
		Fingerprint: ds.Fingerprint,
		CreatedAt:   ds.CreatedAt,
	}
}
