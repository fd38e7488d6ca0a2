package handler

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/apierr"
	v1 "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1/dashboardv1connect"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/interceptors"
)

var _ dashboardv1connect.ClassificationServiceHandler = (*ClassificationHandler)(nil)

// DatasetSource returns the active dataset of a file type.
type DatasetSource interface {
	Latest(ctx context.Context, ft filetype.FileType) (*normalizer.Dataset, error)
}

// ClassificationHandler implements the ClassificationService RPC handlers
type ClassificationHandler struct {
	registry  *classification.Registry
	datasets  DatasetSource
	adminRole string
	logger    *slog.Logger
}

// NewClassificationHandler creates a new classification handler. Callers
// whose role equals adminRole may replace the mapping.
func NewClassificationHandler(registry *classification.Registry, datasets DatasetSource, adminRole string, logger *slog.Logger) *ClassificationHandler {
	return &ClassificationHandler{
		registry:  registry,
		datasets:  datasets,
		adminRole: adminRole,
		logger:    logger,
	}
}

// GetMapping returns the active mapping.
func (h *ClassificationHandler) GetMapping(
	ctx context.Context,
	req *connect.Request[v1.GetMappingRequest],
) (*connect.Response[v1.GetMappingResponse], error) {
	if _, ok := interceptors.GetUserIDFromContext(ctx); !ok {
		return nil, apierr.Unauthenticated()
	}

	snap := h.registry.Current()
	mapping := make(map[string]string, len(snap.Mapping))
	for label, g := range snap.Mapping {
		mapping[label] = string(g)
	}
	groups := make([]string, 0, len(classification.Groups()))
	for _, g := range classification.Groups() {
		groups = append(groups, string(g))
	}

	return connect.NewResponse(&v1.GetMappingResponse{
		Version:   snap.Version,
		Mapping:   mapping,
		Groups:    groups,
		UpdatedBy: snap.UpdatedBy,
		UpdatedAt: snap.UpdatedAt,
	}), nil
}

// ReplaceMapping swaps in a new mapping. Admin only.
func (h *ClassificationHandler) ReplaceMapping(
	ctx context.Context,
	req *connect.Request[v1.ReplaceMappingRequest],
) (*connect.Response[v1.ReplaceMappingResponse], error) {
	p, ok := interceptors.PrincipalFromContext(ctx)
	if !ok || p.UserID == "" {
		return nil, apierr.Unauthenticated()
	}

	actor := classification.Actor{ID: p.UserID, Admin: h.adminRole != "" && p.Role == h.adminRole}
	snap, err := h.registry.Replace(ctx, actor, req.Msg.Mapping)
	if err != nil {
		if errors.Is(err, classification.ErrForbidden) {
			h.logger.Warn("mapping replace denied", slog.String("user_id", p.UserID), slog.String("role", p.Role))
		}
		return nil, apierr.ToConnect(err)
	}

	return connect.NewResponse(&v1.ReplaceMappingResponse{
		Version: snap.Version,
		Labels:  snap.Len(),
	}), nil
}

// ResolveLabels partitions labels into buckets and suggests groups for the
// unknown ones.
func (h *ClassificationHandler) ResolveLabels(
	ctx context.Context,
	req *connect.Request[v1.ResolveLabelsRequest],
) (*connect.Response[v1.ResolveLabelsResponse], error) {
	if _, ok := interceptors.GetUserIDFromContext(ctx); !ok {
		return nil, apierr.Unauthenticated()
	}

	labels := req.Msg.Labels
	if len(labels) == 0 && req.Msg.FileType != "" {
		ft, err := filetype.Parse(req.Msg.FileType)
		if err != nil {
			return nil, apierr.ToConnect(err)
		}
		ds, err := h.datasets.Latest(ctx, ft)
		if err != nil {
			return nil, apierr.ToConnect(err)
		}
		if ds != nil {
			labels = ds.Categories
		}
	}

	snap := h.registry.Current()
	partition := snap.Partition(labels)
	suggestions := snap.Suggest(partition.Unknown, classification.DefaultSuggestThreshold)
	if suggestions == nil {
		suggestions = []classification.Suggestion{}
	}
	if partition.Unknown == nil {
		partition.Unknown = []string{}
	}

	return connect.NewResponse(&v1.ResolveLabelsResponse{
		Version:     snap.Version,
		Partition:   partition,
		Suggestions: suggestions,
	}), nil
}
