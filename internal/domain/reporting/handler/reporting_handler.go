package handler

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/apierr"
	v1 "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1/dashboardv1connect"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/reporting"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/interceptors"
)

var _ dashboardv1connect.ReportingServiceHandler = (*ReportingHandler)(nil)

// ReportingHandler implements the ReportingService RPC handlers
type ReportingHandler struct {
	svc    *reporting.Service
	logger *slog.Logger
}

// NewReportingHandler creates a new reporting handler
func NewReportingHandler(svc *reporting.Service, logger *slog.Logger) *ReportingHandler {
	return &ReportingHandler{svc: svc, logger: logger}
}

func (h *ReportingHandler) TransactionSummary(
	ctx context.Context,
	req *connect.Request[v1.TransactionSummaryRequest],
) (*connect.Response[v1.TransactionSummaryResponse], error) {
	if _, ok := interceptors.GetUserIDFromContext(ctx); !ok {
		return nil, apierr.Unauthenticated()
	}

	ft := filetype.Transactions
	if req.Msg.FileType != "" {
		parsed, err := filetype.Parse(req.Msg.FileType)
		if err != nil {
			return nil, apierr.ToConnect(err)
		}
		ft = parsed
	}

	summary, err := h.svc.TransactionSummary(ctx, ft)
	if err != nil {
		return nil, h.fail("transaction summary", err)
	}
	return connect.NewResponse(&v1.TransactionSummaryResponse{Summary: summary}), nil
}

func (h *ReportingHandler) ProfitAndLoss(
	ctx context.Context,
	req *connect.Request[v1.ProfitAndLossRequest],
) (*connect.Response[v1.ProfitAndLossResponse], error) {
	if _, ok := interceptors.GetUserIDFromContext(ctx); !ok {
		return nil, apierr.Unauthenticated()
	}

	ft := filetype.PnL
	if req.Msg.FileType != "" {
		parsed, err := filetype.Parse(req.Msg.FileType)
		if err != nil {
			return nil, apierr.ToConnect(err)
		}
		ft = parsed
	}

	report, err := h.svc.ProfitAndLoss(ctx, ft, req.Msg.Office)
	if err != nil {
		return nil, h.fail("profit and loss", err)
	}
	return connect.NewResponse(&v1.ProfitAndLossResponse{Report: report}), nil
}

func (h *ReportingHandler) PipelineSummary(
	ctx context.Context,
	req *connect.Request[v1.PipelineSummaryRequest],
) (*connect.Response[v1.PipelineSummaryResponse], error) {
	if _, ok := interceptors.GetUserIDFromContext(ctx); !ok {
		return nil, apierr.Unauthenticated()
	}

	report, err := h.svc.PipelineSummary(ctx)
	if err != nil {
		return nil, h.fail("pipeline summary", err)
	}
	return connect.NewResponse(&v1.PipelineSummaryResponse{Report: report}), nil
}

func (h *ReportingHandler) UpdateOpportunityProbability(
	ctx context.Context,
	req *connect.Request[v1.UpdateOpportunityProbabilityRequest],
) (*connect.Response[v1.UpdateOpportunityProbabilityResponse], error) {
	if _, ok := interceptors.GetUserIDFromContext(ctx); !ok {
		return nil, apierr.Unauthenticated()
	}

	view, err := h.svc.UpdateOpportunityProbability(ctx, req.Msg.OpportunityID, req.Msg.Probability)
	if err != nil {
		return nil, h.fail("update probability", err)
	}
	return connect.NewResponse(&v1.UpdateOpportunityProbabilityResponse{Opportunity: view}), nil
}

func (h *ReportingHandler) fail(op string, err error) error {
	if apierr.Code(err) == connect.CodeInternal {
		h.logger.Error("report failed", slog.String("op", op), slog.Any("error", err))
	}
	return apierr.ToConnect(err)
}
