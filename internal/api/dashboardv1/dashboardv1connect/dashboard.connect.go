// Package dashboardv1connect wires the dashboard services to Connect
// handlers and clients.
package dashboardv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	v1 "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/connectjson"
)

const (
	IngestServiceName         = "dashboard.v1.IngestService"
	ClassificationServiceName = "dashboard.v1.ClassificationService"
	ReportingServiceName      = "dashboard.v1.ReportingService"
)

const (
	IngestServiceUploadProcedure           = "/dashboard.v1.IngestService/Upload"
	IngestServiceUploadChunkProcedure      = "/dashboard.v1.IngestService/UploadChunk"
	IngestServiceGetLatestDatasetProcedure = "/dashboard.v1.IngestService/GetLatestDataset"

	ClassificationServiceGetMappingProcedure     = "/dashboard.v1.ClassificationService/GetMapping"
	ClassificationServiceReplaceMappingProcedure = "/dashboard.v1.ClassificationService/ReplaceMapping"
	ClassificationServiceResolveLabelsProcedure  = "/dashboard.v1.ClassificationService/ResolveLabels"

	ReportingServiceTransactionSummaryProcedure           = "/dashboard.v1.ReportingService/TransactionSummary"
	ReportingServiceProfitAndLossProcedure                = "/dashboard.v1.ReportingService/ProfitAndLoss"
	ReportingServicePipelineSummaryProcedure              = "/dashboard.v1.ReportingService/PipelineSummary"
	ReportingServiceUpdateOpportunityProbabilityProcedure = "/dashboard.v1.ReportingService/UpdateOpportunityProbability"
)

// ============================================================================
// Handlers
// ============================================================================

type IngestServiceHandler interface {
	Upload(context.Context, *connect.Request[v1.UploadRequest]) (*connect.Response[v1.UploadResponse], error)
	UploadChunk(context.Context, *connect.Request[v1.UploadChunkRequest]) (*connect.Response[v1.UploadChunkResponse], error)
	GetLatestDataset(context.Context, *connect.Request[v1.GetLatestDatasetRequest]) (*connect.Response[v1.GetLatestDatasetResponse], error)
}

type ClassificationServiceHandler interface {
	GetMapping(context.Context, *connect.Request[v1.GetMappingRequest]) (*connect.Response[v1.GetMappingResponse], error)
	ReplaceMapping(context.Context, *connect.Request[v1.ReplaceMappingRequest]) (*connect.Response[v1.ReplaceMappingResponse], error)
	ResolveLabels(context.Context, *connect.Request[v1.ResolveLabelsRequest]) (*connect.Response[v1.ResolveLabelsResponse], error)
}

type ReportingServiceHandler interface {
	TransactionSummary(context.Context, *connect.Request[v1.TransactionSummaryRequest]) (*connect.Response[v1.TransactionSummaryResponse], error)
	ProfitAndLoss(context.Context, *connect.Request[v1.ProfitAndLossRequest]) (*connect.Response[v1.ProfitAndLossResponse], error)
	PipelineSummary(context.Context, *connect.Request[v1.PipelineSummaryRequest]) (*connect.Response[v1.PipelineSummaryResponse], error)
	UpdateOpportunityProbability(context.Context, *connect.Request[v1.UpdateOpportunityProbabilityRequest]) (*connect.Response[v1.UpdateOpportunityProbabilityResponse], error)
}

// mux routes procedures of one service.
type mux map[string]http.Handler

func (m mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.URL.Path]; ok {
		h.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connectjson.HandlerOption()}, opts...)
}

// NewIngestServiceHandler returns the service path prefix and its handler.
func NewIngestServiceHandler(svc IngestServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + IngestServiceName + "/", mux{
		IngestServiceUploadProcedure:           connect.NewUnaryHandler(IngestServiceUploadProcedure, svc.Upload, opts...),
		IngestServiceUploadChunkProcedure:      connect.NewUnaryHandler(IngestServiceUploadChunkProcedure, svc.UploadChunk, opts...),
		IngestServiceGetLatestDatasetProcedure: connect.NewUnaryHandler(IngestServiceGetLatestDatasetProcedure, svc.GetLatestDataset, opts...),
	}
}

// NewClassificationServiceHandler returns the service path prefix and its handler.
func NewClassificationServiceHandler(svc ClassificationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + ClassificationServiceName + "/", mux{
		ClassificationServiceGetMappingProcedure:     connect.NewUnaryHandler(ClassificationServiceGetMappingProcedure, svc.GetMapping, opts...),
		ClassificationServiceReplaceMappingProcedure: connect.NewUnaryHandler(ClassificationServiceReplaceMappingProcedure, svc.ReplaceMapping, opts...),
		ClassificationServiceResolveLabelsProcedure:  connect.NewUnaryHandler(ClassificationServiceResolveLabelsProcedure, svc.ResolveLabels, opts...),
	}
}

// NewReportingServiceHandler returns the service path prefix and its handler.
func NewReportingServiceHandler(svc ReportingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + ReportingServiceName + "/", mux{
		ReportingServiceTransactionSummaryProcedure:           connect.NewUnaryHandler(ReportingServiceTransactionSummaryProcedure, svc.TransactionSummary, opts...),
		ReportingServiceProfitAndLossProcedure:                connect.NewUnaryHandler(ReportingServiceProfitAndLossProcedure, svc.ProfitAndLoss, opts...),
		ReportingServicePipelineSummaryProcedure:              connect.NewUnaryHandler(ReportingServicePipelineSummaryProcedure, svc.PipelineSummary, opts...),
		ReportingServiceUpdateOpportunityProbabilityProcedure: connect.NewUnaryHandler(ReportingServiceUpdateOpportunityProbabilityProcedure, svc.UpdateOpportunityProbability, opts...),
	}
}

// ============================================================================
// Clients
// ============================================================================

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connectjson.ClientOption()}, opts...)
}

// IngestServiceClient calls the ingest service.
type IngestServiceClient struct {
	upload           *connect.Client[v1.UploadRequest, v1.UploadResponse]
	uploadChunk      *connect.Client[v1.UploadChunkRequest, v1.UploadChunkResponse]
	getLatestDataset *connect.Client[v1.GetLatestDatasetRequest, v1.GetLatestDatasetResponse]
}

func NewIngestServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *IngestServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &IngestServiceClient{
		upload:           connect.NewClient[v1.UploadRequest, v1.UploadResponse](httpClient, baseURL+IngestServiceUploadProcedure, opts...),
		uploadChunk:      connect.NewClient[v1.UploadChunkRequest, v1.UploadChunkResponse](httpClient, baseURL+IngestServiceUploadChunkProcedure, opts...),
		getLatestDataset: connect.NewClient[v1.GetLatestDatasetRequest, v1.GetLatestDatasetResponse](httpClient, baseURL+IngestServiceGetLatestDatasetProcedure, opts...),
	}
}

func (c *IngestServiceClient) Upload(ctx context.Context, req *connect.Request[v1.UploadRequest]) (*connect.Response[v1.UploadResponse], error) {
	return c.upload.CallUnary(ctx, req)
}

func (c *IngestServiceClient) UploadChunk(ctx context.Context, req *connect.Request[v1.UploadChunkRequest]) (*connect.Response[v1.UploadChunkResponse], error) {
	return c.uploadChunk.CallUnary(ctx, req)
}

func (c *IngestServiceClient) GetLatestDataset(ctx context.Context, req *connect.Request[v1.GetLatestDatasetRequest]) (*connect.Response[v1.GetLatestDatasetResponse], error) {
	return c.getLatestDataset.CallUnary(ctx, req)
}

// ClassificationServiceClient calls the classification service.
type ClassificationServiceClient struct {
	getMapping     *connect.Client[v1.GetMappingRequest, v1.GetMappingResponse]
	replaceMapping *connect.Client[v1.ReplaceMappingRequest, v1.ReplaceMappingResponse]
	resolveLabels  *connect.Client[v1.ResolveLabelsRequest, v1.ResolveLabelsResponse]
}

func NewClassificationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ClassificationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ClassificationServiceClient{
		getMapping:     connect.NewClient[v1.GetMappingRequest, v1.GetMappingResponse](httpClient, baseURL+ClassificationServiceGetMappingProcedure, opts...),
		replaceMapping: connect.NewClient[v1.ReplaceMappingRequest, v1.ReplaceMappingResponse](httpClient, baseURL+ClassificationServiceReplaceMappingProcedure, opts...),
		resolveLabels:  connect.NewClient[v1.ResolveLabelsRequest, v1.ResolveLabelsResponse](httpClient, baseURL+ClassificationServiceResolveLabelsProcedure, opts...),
	}
}

func (c *ClassificationServiceClient) GetMapping(ctx context.Context, req *connect.Request[v1.GetMappingRequest]) (*connect.Response[v1.GetMappingResponse], error) {
	return c.getMapping.CallUnary(ctx, req)
}

func (c *ClassificationServiceClient) ReplaceMapping(ctx context.Context, req *connect.Request[v1.ReplaceMappingRequest]) (*connect.Response[v1.ReplaceMappingResponse], error) {
	return c.replaceMapping.CallUnary(ctx, req)
}

func (c *ClassificationServiceClient) ResolveLabels(ctx context.Context, req *connect.Request[v1.ResolveLabelsRequest]) (*connect.Response[v1.ResolveLabelsResponse], error) {
	return c.resolveLabels.CallUnary(ctx, req)
}

// ReportingServiceClient calls the reporting service.
type ReportingServiceClient struct {
	transactionSummary           *connect.Client[v1.TransactionSummaryRequest, v1.TransactionSummaryResponse]
	profitAndLoss                *connect.Client[v1.ProfitAndLossRequest, v1.ProfitAndLossResponse]
	pipelineSummary              *connect.Client[v1.PipelineSummaryRequest, v1.PipelineSummaryResponse]
	updateOpportunityProbability *connect.Client[v1.UpdateOpportunityProbabilityRequest, v1.UpdateOpportunityProbabilityResponse]
}

func NewReportingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ReportingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ReportingServiceClient{
		transactionSummary:           connect.NewClient[v1.TransactionSummaryRequest, v1.TransactionSummaryResponse](httpClient, baseURL+ReportingServiceTransactionSummaryProcedure, opts...),
		profitAndLoss:                connect.NewClient[v1.ProfitAndLossRequest, v1.ProfitAndLossResponse](httpClient, baseURL+ReportingServiceProfitAndLossProcedure, opts...),
		pipelineSummary:              connect.NewClient[v1.PipelineSummaryRequest, v1.PipelineSummaryResponse](httpClient, baseURL+ReportingServicePipelineSummaryProcedure, opts...),
		updateOpportunityProbability: connect.NewClient[v1.UpdateOpportunityProbabilityRequest, v1.UpdateOpportunityProbabilityResponse](httpClient, baseURL+ReportingServiceUpdateOpportunityProbabilityProcedure, opts...),
	}
}

func (c *ReportingServiceClient) TransactionSummary(ctx context.Context, req *connect.Request[v1.TransactionSummaryRequest]) (*connect.Response[v1.TransactionSummaryResponse], error) {
	return c.transactionSummary.CallUnary(ctx, req)
}

func (c *ReportingServiceClient) ProfitAndLoss(ctx context.Context, req *connect.Request[v1.ProfitAndLossRequest]) (*connect.Response[v1.ProfitAndLossResponse], error) {
	return c.profitAndLoss.CallUnary(ctx, req)
}

func (c *ReportingServiceClient) PipelineSummary(ctx context.Context, req *connect.Request[v1.PipelineSummaryRequest]) (*connect.Response[v1.PipelineSummaryResponse], error) {
	return c.pipelineSummary.CallUnary(ctx, req)
}

func (c *ReportingServiceClient) UpdateOpportunityProbability(ctx context.Context, req *connect.Request[v1.UpdateOpportunityProbabilityRequest]) (*connect.Response[v1.UpdateOpportunityProbabilityResponse], error) {
	return c.updateOpportunityProbability.CallUnary(ctx, req)
}
