package normalizer

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/money"
)

// Dataset is the canonical, persisted form of one upload. Which fields are
// populated depends on the file type's route.
type Dataset struct {
	ID          uuid.UUID         `json:"id"`
	FileType    filetype.FileType `json:"fileType"`
	UploadedBy  string            `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Schema      sniffer.Schema    `json:"schema"`
	RowCount    int               `json:"rowCount"`

	// Transactions route
	Transactions            []Transaction `json:"transactions,omitempty"`
	OpeningBalance          money.Amount  `json:"openingBalance"`
	OpeningBalanceSecondary *money.Amount `json:"openingBalanceSecondary,omitempty"`

	// Statement and pipeline routes
	Months        []string        `json:"months,omitempty"`
	Lines         []StatementLine `json:"lines,omitempty"`
	Opportunities []Opportunity   `json:"opportunities,omitempty"`

	Categories []string     `json:"categories,omitempty"`
	Skipped    []SkippedRow `json:"skipped,omitempty"`
}

// Normalizer dispatches raw rows to the normalization for a file type.
// It is safe for concurrent use.
type Normalizer struct {
	inferencer *sniffer.Inferencer
}

// New creates a Normalizer. A nil inferencer uses sniffer.DefaultInferencer.
func New(inferencer *sniffer.Inferencer) *Normalizer {
	if inferencer == nil {
		inferencer = sniffer.DefaultInferencer()
	}
	return &Normalizer{inferencer: inferencer}
}

// Inferencer returns the header inferencer in use.
func (n *Normalizer) Inferencer() *sniffer.Inferencer {
	return n.inferencer
}

// Normalize converts rows into a Dataset. Empty input and schema failures are
// the only errors; individual bad rows are reported in Dataset.Skipped.
func (n *Normalizer) Normalize(ft filetype.FileType, rows []parser.Record) (*Dataset, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("%w: %s", filetype.ErrUnknownFileType, ft)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	headers := parser.Headers(rows)
	ds := &Dataset{
		FileType:    ft,
		Fingerprint: sniffer.Fingerprint(headers),
		RowCount:    len(rows),
	}

	switch ft.Route() {
	case filetype.RouteTransactions:
		schema, err := n.inferencer.InferTransactionSchema(headers, ft.Secondary())
		if err != nil {
			return nil, err
		}
		batch, err := NormalizeTransactions(rows, schema, ft.Secondary())
		if err != nil {
			return nil, err
		}
		ds.Schema = schema
		ds.Transactions = batch.Transactions
		ds.OpeningBalance = batch.OpeningBalance
		ds.OpeningBalanceSecondary = batch.OpeningBalanceSecondary
		ds.Skipped = batch.Skipped
		ds.Categories = transactionCategories(batch.Transactions)

	case filetype.RouteStatement:
		batch, err := NormalizeStatement(rows, n.inferencer)
		if err != nil {
			return nil, err
		}
		ds.Schema = n.inferencer.Infer(headers)
		ds.Months = batch.Months
		ds.Lines = batch.Lines
		ds.Categories = batch.Categories
		ds.Skipped = batch.Skipped

	case filetype.RoutePipeline:
		batch, err := NormalizePipeline(rows, n.inferencer)
		if err != nil {
			return nil, err
		}
		ds.Schema = n.inferencer.Infer(headers)
		ds.Months = batch.Months
		ds.Opportunities = batch.Opportunities
		ds.Skipped = batch.Skipped
	}

	return ds, nil
}

func transactionCategories(txs []Transaction) []string {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		seen[tx.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
