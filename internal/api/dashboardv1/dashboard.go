// Package dashboardv1 defines the request and response messages of the
// dashboard RPC services. Messages travel as JSON.
package dashboardv1

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/reporting"
)

// ============================================================================
// IngestService
// ============================================================================

type UploadRequest struct {
	FileType string          `json:"fileType"`
	Data     []parser.Record `json:"data"`
}

// DatasetSummary describes a stored dataset without its records.
type DatasetSummary struct {
	ID          string                  `json:"id"`
	FileType    string                  `json:"fileType"`
	RowCount    int                     `json:"rowCount"`
	Records     int                     `json:"records"`
	Skipped     []normalizer.SkippedRow `json:"skipped"`
	Schema      sniffer.Schema          `json:"schema"`
	Months      []string                `json:"months,omitempty"`
	Categories  []string                `json:"categories,omitempty"`
	Fingerprint string                  `json:"fingerprint"`
	CreatedAt   time.Time               `json:"createdAt"`
}

type UploadResponse struct {
	Dataset DatasetSummary `json:"dataset"`
}

type UploadChunkRequest struct {
	UploadID    string          `json:"uploadId"`
	ChunkIndex  int             `json:"chunkIndex"`
	TotalChunks int             `json:"totalChunks"`
	FileType    string          `json:"fileType"`
	ChunkData   []parser.Record `json:"chunkData"`
}

type UploadChunkResponse struct {
	UploadID string `json:"uploadId"`
	Received int    `json:"received"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
	// Dataset is set on the chunk that completes the upload.
	Dataset *DatasetSummary `json:"dataset,omitempty"`
}

type GetLatestDatasetRequest struct {
	FileType string `json:"fileType"`
}

type GetLatestDatasetResponse struct {
	Dataset *normalizer.Dataset `json:"dataset"`
}

// ============================================================================
// ClassificationService
// ============================================================================

type GetMappingRequest struct{}

type GetMappingResponse struct {
	Version   int64             `json:"version"`
	Mapping   map[string]string `json:"mapping"`
	Groups    []string          `json:"groups"`
	UpdatedBy string            `json:"updatedBy,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type ReplaceMappingRequest struct {
	Mapping map[string]string `json:"mapping"`
}

type ReplaceMappingResponse struct {
	Version int64 `json:"version"`
	Labels  int   `json:"labels"`
}

// ResolveLabelsRequest classifies Labels, or the categories of the latest
// dataset of FileType when Labels is empty.
type ResolveLabelsRequest struct {
	Labels   []string `json:"labels,omitempty"`
	FileType string   `json:"fileType,omitempty"`
}

type ResolveLabelsResponse struct {
	Version     int64                       `json:"version"`
	Partition   classification.Partition    `json:"partition"`
	Suggestions []classification.Suggestion `json:"suggestions"`
}

// ============================================================================
// ReportingService
// ============================================================================

type TransactionSummaryRequest struct {
	FileType string `json:"fileType"`
}

type TransactionSummaryResponse struct {
	Summary *reporting.TransactionSummary `json:"summary"`
}

type ProfitAndLossRequest struct {
	FileType string `json:"fileType"`
	Office   string `json:"office,omitempty"`
}

type ProfitAndLossResponse struct {
	Report *reporting.PnLReport `json:"report"`
}

type PipelineSummaryRequest struct{}

type PipelineSummaryResponse struct {
	Report *reporting.PipelineReport `json:"report"`
}

type UpdateOpportunityProbabilityRequest struct {
	OpportunityID string          `json:"opportunityId"`
	Probability   decimal.Decimal `json:"probability"`
}

type UpdateOpportunityProbabilityResponse struct {
	Opportunity *reporting.OpportunityView `json:"opportunity"`
}
