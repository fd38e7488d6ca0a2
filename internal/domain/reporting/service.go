package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/repository"
)

var (
	ErrNoDataset  = errors.New("no dataset uploaded")
	ErrWrongRoute = errors.New("file type does not support this report")
)

// Service builds reports from the active datasets.
type Service struct {
	datasets repository.DatasetRepository
	classes  *classification.Registry
	logger   *slog.Logger

	// mu serializes read-modify-write of the pipeline dataset.
	mu sync.Mutex
}

// NewService creates a new reporting service
func NewService(datasets repository.DatasetRepository, classes *classification.Registry, logger *slog.Logger) *Service {
	return &Service{datasets: datasets, classes: classes, logger: logger}
}

func (s *Service) load(ctx context.Context, ft filetype.FileType, route filetype.Route) (*normalizer.Dataset, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("%w: %s", filetype.ErrUnknownFileType, ft)
	}
	if ft.Route() != route {
		return nil, fmt.Errorf("%w: %s is a %s file type", ErrWrongRoute, ft, ft.Route())
	}
	ds, err := s.datasets.FetchLatestActive(ctx, ft)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s dataset: %w", ft, err)
	}
	if ds == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDataset, ft)
	}
	return ds, nil
}

// TransactionSummary reports balances and flows of a transactions dataset.
func (s *Service) TransactionSummary(ctx context.Context, ft filetype.FileType) (*TransactionSummary, error) {
	ds, err := s.load(ctx, ft, filetype.RouteTransactions)
	if err != nil {
		return nil, err
	}
	return SummarizeTransactions(ds), nil
}

// ProfitAndLoss reports the P&L of a statement dataset against the active
// classification mapping.
func (s *Service) ProfitAndLoss(ctx context.Context, ft filetype.FileType, office string) (*PnLReport, error) {
	ds, err := s.load(ctx, ft, filetype.RouteStatement)
	if err != nil {
		return nil, err
	}
	report := ProfitAndLoss(ds, s.classes.Current(), office)
	if len(report.Unknown) > 0 {
		s.logger.Debug("unclassified labels in report",
			slog.String("file_type", string(ft)),
			slog.Int("count", len(report.Unknown)),
		)
	}
	return report, nil
}

// PipelineSummary reports the active pipeline dataset.
func (s *Service) PipelineSummary(ctx context.Context) (*PipelineReport, error) {
	ds, err := s.load(ctx, filetype.Pipeline, filetype.RoutePipeline)
	if err != nil {
		return nil, err
	}
	return SummarizePipeline(ds), nil
}

// UpdateOpportunityProbability changes one opportunity's probability in the
// active pipeline dataset and stores the result.
func (s *Service) UpdateOpportunityProbability(ctx context.Context, id string, probability decimal.Decimal) (*OpportunityView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.load(ctx, filetype.Pipeline, filetype.RoutePipeline)
	if err != nil {
		return nil, err
	}

	view, err := UpdateProbability(ds, id, probability)
	if err != nil {
		return nil, err
	}
	if err := s.datasets.Update(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to store pipeline dataset: %w", err)
	}

	s.logger.Info("opportunity probability updated",
		slog.String("opportunity_id", id),
		slog.String("probability", view.Probability.String()),
	)
	return view, nil
}
