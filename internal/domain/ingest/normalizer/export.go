package normalizer

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// ExportTransactionsCSV renders transactions as CSV with a header row.
func ExportTransactionsCSV(txs []Transaction) ([]byte, error) {
	if txs == nil {
		txs = []Transaction{}
	}
	out, err := gocsv.MarshalBytes(&txs)
	if err != nil {
		return nil, fmt.Errorf("failed to export transactions: %w", err)
	}
	return out, nil
}

// statementRow is the flat CSV form of a statement line in one month.
type statementRow struct {
	Label  string `csv:"label"`
	Office string `csv:"office"`
	Class  string `csv:"class"`
	Month  string `csv:"month"`
	Amount string `csv:"amount"`
}

// ExportStatementCSV renders statement lines in long format, one row per
// label and month.
func ExportStatementCSV(months []string, lines []StatementLine) ([]byte, error) {
	rows := make([]statementRow, 0, len(lines)*max(len(months), 1))
	for _, l := range lines {
		if len(months) == 0 {
			rows = append(rows, statementRow{Label: l.Label, Office: l.Office, Class: l.Class, Month: "total", Amount: l.Total.String()})
			continue
		}
		for i, m := range months {
			amount := "0.00"
			if i < len(l.Values) {
				amount = l.Values[i].String()
			}
			rows = append(rows, statementRow{Label: l.Label, Office: l.Office, Class: l.Class, Month: m, Amount: amount})
		}
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to export statement: %w", err)
	}
	return out, nil
}
