package reporting

import (
	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
)

// TransactionSummary is the cashflow view of a transactions dataset. In the
// month, category and office views the outflow axis is negative, so each
// bucket total is its net movement.
type TransactionSummary struct {
	Count        int             `json:"count"`
	Opening      decimal.Decimal `json:"openingBalance"`
	Closing      decimal.Decimal `json:"closingBalance"`
	TotalInflow  decimal.Decimal `json:"totalInflow"`
	TotalOutflow decimal.Decimal `json:"totalOutflow"`

	OpeningSecondary *decimal.Decimal `json:"openingBalanceSecondary,omitempty"`
	ClosingSecondary *decimal.Decimal `json:"closingBalanceSecondary,omitempty"`

	Months     []MonthBalance `json:"months"`
	ByMonth    View           `json:"byMonth"`
	ByCategory View           `json:"byCategory"`
	ByOffice   View           `json:"byOffice"`
}

// SummarizeTransactions builds the cashflow view of ds.
func SummarizeTransactions(ds *normalizer.Dataset) *TransactionSummary {
	txs := ds.Transactions
	opening := ds.OpeningBalance.Decimal
	axes := []string{AxisInflow, AxisOutflow}

	s := &TransactionSummary{
		Count:   len(txs),
		Opening: opening,
		Closing: ClosingBalance(opening, txs),
		Months:  MonthEndBalances(opening, txs),
		ByMonth: Aggregate(txs, axes,
			func(tx normalizer.Transaction) string { return monthOf(tx.Date) }, flowAxes),
		ByCategory: Aggregate(txs, axes,
			func(tx normalizer.Transaction) string { return tx.Category }, flowAxes),
		ByOffice: Aggregate(txs, axes,
			func(tx normalizer.Transaction) string { return tx.Office }, flowAxes),
	}
	s.TotalInflow = s.ByMonth.AxisTotals[0]
	s.TotalOutflow = s.ByMonth.AxisTotals[1].Neg()

	if ds.OpeningBalanceSecondary != nil {
		openingSecondary := ds.OpeningBalanceSecondary.Decimal
		closing := openingSecondary
		for _, tx := range txs {
			closing = closing.Add(tx.SignedSecondary())
		}
		s.OpeningSecondary = &openingSecondary
		s.ClosingSecondary = &closing
	}
	return s
}
