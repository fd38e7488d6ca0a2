package reporting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/money"
)

// Axes of transaction views.
const (
	AxisInflow  = "inflow"
	AxisOutflow = "outflow"
)

// BalancePoint is the running balance after one transaction.
type BalancePoint struct {
	TransactionID string          `json:"transactionId"`
	Date          string          `json:"date"`
	Inflow        decimal.Decimal `json:"inflow"`
	Outflow       decimal.Decimal `json:"outflow"`
	Balance       decimal.Decimal `json:"balance"`
}

// MonthBalance summarizes one calendar month of transactions.
type MonthBalance struct {
	Month   string          `json:"month"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
	Closing decimal.Decimal `json:"closing"`
}

// RunningBalance returns balance[i] = opening + Σ_{j<=i}(inflow[j] - outflow[j])
// in input order.
func RunningBalance(opening decimal.Decimal, txs []normalizer.Transaction) []BalancePoint {
	out := make([]BalancePoint, 0, len(txs))
	balance := opening
	for _, tx := range txs {
		in, outflow := flows(tx)
		balance = balance.Add(in).Sub(outflow)
		out = append(out, BalancePoint{
			TransactionID: tx.ID,
			Date:          tx.Date,
			Inflow:        in,
			Outflow:       outflow,
			Balance:       balance,
		})
	}
	return out
}

// ClosingBalance is the last running balance, or opening when there are no
// transactions.
func ClosingBalance(opening decimal.Decimal, txs []normalizer.Transaction) decimal.Decimal {
	points := RunningBalance(opening, txs)
	if len(points) == 0 {
		return opening
	}
	return points[len(points)-1].Balance
}

// MonthEndBalances groups transactions by calendar month in chronological
// order. Closing is the opening balance plus every transaction dated in or
// before that month.
func MonthEndBalances(opening decimal.Decimal, txs []normalizer.Transaction) []MonthBalance {
	byMonth := make(map[string]*MonthBalance)
	for _, tx := range txs {
		month := monthOf(tx.Date)
		mb, ok := byMonth[month]
		if !ok {
			mb = &MonthBalance{Month: month, Inflow: decimal.Zero, Outflow: decimal.Zero}
			byMonth[month] = mb
		}
		in, out := flows(tx)
		mb.Inflow = mb.Inflow.Add(in)
		mb.Outflow = mb.Outflow.Add(out)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthBalance, 0, len(months))
	balance := opening
	for _, m := range months {
		mb := byMonth[m]
		mb.Net = mb.Inflow.Sub(mb.Outflow)
		balance = balance.Add(mb.Net)
		mb.Closing = balance
		out = append(out, *mb)
	}
	return out
}

// flows splits a transaction into non-negative inflow and outflow parts.
func flows(tx normalizer.Transaction) (decimal.Decimal, decimal.Decimal) {
	amount := tx.Amount.Abs()
	if tx.Type == normalizer.Outflow {
		return decimal.Zero, amount
	}
	return amount, decimal.Zero
}

func flowAxes(tx normalizer.Transaction) []decimal.Decimal {
	in, out := flows(tx)
	return []decimal.Decimal{in, out.Neg()}
}

// monthOf returns the YYYY-MM prefix of an ISO date.
func monthOf(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

func decimals(amounts []money.Amount) []decimal.Decimal {
	out := make([]decimal.Decimal, len(amounts))
	for i, a := range amounts {
		out[i] = a.Decimal
	}
	return out
}
