package normalizer

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/money"
)

// DefaultCategory is assigned when a row has no category value.
const DefaultCategory = "Uncategorized"

// ErrNoData is returned when a batch has no rows at all.
var ErrNoData = errors.New("no data rows")

// FlowType is the direction of a transaction.
type FlowType string

const (
	Inflow  FlowType = "inflow"
	Outflow FlowType = "outflow"
)

// Skip reasons reported for rows dropped during normalization.
const (
	ReasonMissingDate        = "missing date"
	ReasonMissingDescription = "missing description"
	ReasonInvalidDate        = "unrecognized date"
	ReasonNoAmount           = "no debit or credit amount"
	ReasonMissingLabel       = "missing label"
	ReasonSummaryRow         = "summary row"
	ReasonMissingValue       = "missing value"
)

// Transaction is a canonical bank transaction. Amount is always positive;
// Type carries the direction.
type Transaction struct {
	ID              string       `json:"id" csv:"id"`
	Date            string       `json:"date" csv:"date"`
	Description     string       `json:"description" csv:"description"`
	Category        string       `json:"category" csv:"category"`
	Contact         string       `json:"contact,omitempty" csv:"contact"`
	Office          string       `json:"office,omitempty" csv:"office"`
	Type            FlowType     `json:"type" csv:"type"`
	Amount          money.Amount `json:"amount" csv:"amount"`
	AmountSecondary money.Amount `json:"amountSecondary" csv:"amount_secondary"`
}

// Signed returns the amount with outflows negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Outflow {
		return t.Amount.Neg()
	}
	return t.Amount.Decimal
}

// SignedSecondary returns the secondary amount with outflows negative.
func (t Transaction) SignedSecondary() decimal.Decimal {
	if t.Type == Outflow {
		return t.AmountSecondary.Neg()
	}
	return t.AmountSecondary.Decimal
}

// SkippedRow records a row that was dropped and why. Row is the zero-based
// index into the input batch.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// TransactionBatch is the result of normalizing one bank statement.
type TransactionBatch struct {
	Transactions            []Transaction
	OpeningBalance          money.Amount
	OpeningBalanceSecondary *money.Amount
	Skipped                 []SkippedRow
}

// rowOutcome is either a transaction or a skip, never both.
type rowOutcome struct {
	tx   *Transaction
	skip *SkippedRow
}

// NormalizeTransactions converts bank statement rows into transactions. Row 0
// is the opening balance row and never a transaction: a positive debit is a
// positive opening balance, otherwise a positive credit is a negative one.
// Rows without a date, a description or any amount are skipped and reported. In secondary mode the
// secondary currency pair drives AmountSecondary; otherwise it mirrors Amount.
func NormalizeTransactions(rows []parser.Record, schema sniffer.Schema, secondary bool) (*TransactionBatch, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	batch := &TransactionBatch{
		Transactions: make([]Transaction, 0, len(rows)),
	}

	batch.OpeningBalance = money.NewAmount(openingBalance(rows[0], schema.Debit, schema.Credit))
	if secondary {
		opening := money.NewAmount(openingBalance(rows[0], schema.DebitSecondary, schema.CreditSecondary))
		batch.OpeningBalanceSecondary = &opening
	}

	categoryCol := schema.CategoryFallback()
	for i := 1; i < len(rows); i++ {
		out := normalizeRow(i, rows[i], schema, categoryCol, secondary)
		if out.skip != nil {
			batch.Skipped = append(batch.Skipped, *out.skip)
			continue
		}
		batch.Transactions = append(batch.Transactions, *out.tx)
	}

	return batch, nil
}

func openingBalance(row parser.Record, debitCol, creditCol string) decimal.Decimal {
	debit := ParseAmount(row.Cell(debitCol))
	if debit.IsPositive() {
		return debit
	}
	credit := ParseAmount(row.Cell(creditCol))
	if credit.IsPositive() {
		return credit.Neg()
	}
	return decimal.Zero
}

func normalizeRow(i int, row parser.Record, schema sniffer.Schema, categoryCol string, secondary bool) rowOutcome {
	skip := func(reason string) rowOutcome {
		return rowOutcome{skip: &SkippedRow{Row: i, Reason: reason}}
	}

	rawDate := row.String(schema.Date)
	if rawDate == "" {
		return skip(ReasonMissingDate)
	}
	description := row.String(schema.Description)
	if description == "" {
		return skip(ReasonMissingDescription)
	}

	flow, amount, ok := direction(row, schema.Debit, schema.Credit)
	if !ok {
		return skip(ReasonNoAmount)
	}

	date, err := NormalizeDate(rawDate)
	if err != nil {
		return skip(ReasonInvalidDate)
	}

	category := row.String(categoryCol)
	if category == "" {
		category = DefaultCategory
	}

	tx := &Transaction{
		ID:              uuid.NewString(),
		Date:            date,
		Description:     description,
		Category:        category,
		Contact:         row.String(schema.Contact),
		Office:          row.String(schema.Office),
		Type:            flow,
		Amount:          money.NewAmount(amount),
		AmountSecondary: money.NewAmount(amount),
	}

	if secondary {
		_, amountSecondary, _ := direction(row, schema.DebitSecondary, schema.CreditSecondary)
		tx.AmountSecondary = money.NewAmount(amountSecondary)
	}

	return rowOutcome{tx: tx}
}

// direction reads a debit/credit pair. A positive debit is an inflow, else a
// positive credit is an outflow. Amounts are returned as magnitudes.
func direction(row parser.Record, debitCol, creditCol string) (FlowType, decimal.Decimal, bool) {
	if debit := ParseAmount(row.Cell(debitCol)); debit.IsPositive() {
		return Inflow, debit.Abs(), true
	}
	if credit := ParseAmount(row.Cell(creditCol)); credit.IsPositive() {
		return Outflow, credit.Abs(), true
	}
	return "", decimal.Zero, false
}
