// Package filetype defines the fixed set of ingestion batch tags and the
// normalization route each one takes.
package filetype

import (
	"errors"
	"fmt"
	"strings"
)

// FileType tags an ingestion batch.
type FileType string

const (
	Transactions          FileType = "transactions"
	TransactionsSecondary FileType = "transactions-secondary"
	Sankey                FileType = "sankey"
	SankeySecondary       FileType = "sankey-secondary"
	PnL                   FileType = "pnl"
	Cashflow              FileType = "cashflow"
	Pipeline              FileType = "pipeline"
)

// Route identifies which normalizer handles a batch.
type Route int

const (
	RouteTransactions Route = iota
	RouteStatement
	RoutePipeline
)

func (r Route) String() string {
	switch r {
	case RouteTransactions:
		return "transactions"
	case RouteStatement:
		return "statement"
	case RoutePipeline:
		return "pipeline"
	default:
		return fmt.Sprintf("route(%d)", int(r))
	}
}

var ErrUnknownFileType = errors.New("unknown file type")

// All returns every supported file type.
func All() []FileType {
	return []FileType{Transactions, TransactionsSecondary, Sankey, SankeySecondary, PnL, Cashflow, Pipeline}
}

// Parse resolves a file type tag case-insensitively. Underscores are accepted
// in place of dashes.
func Parse(s string) (FileType, error) {
	candidate := FileType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, ft := range All() {
		if ft == candidate {
			return ft, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFileType, s)
}

// Valid reports whether f is one of the supported tags.
func (f FileType) Valid() bool {
	_, err := Parse(string(f))
	return err == nil
}

// Route returns the normalizer for f. Sankey batches are aliases of the
// transaction batches and share their route.
func (f FileType) Route() Route {
	switch f {
	case PnL, Cashflow:
		return RouteStatement
	case Pipeline:
		return RoutePipeline
	default:
		return RouteTransactions
	}
}

// Secondary reports whether f carries a secondary currency axis.
func (f FileType) Secondary() bool {
	return f == TransactionsSecondary || f == SankeySecondary
}

func (f FileType) String() string {
	return string(f)
}
