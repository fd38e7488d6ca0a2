package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/money"
)

// StatementLine is one labelled row of a P&L or cashflow export. Values are
// aligned with the batch's Months.
type StatementLine struct {
	Label  string         `json:"label"`
	Office string         `json:"office,omitempty"`
	Class  string         `json:"class,omitempty"`
	Values []money.Amount `json:"values,omitempty"`
	Total  money.Amount   `json:"total"`
}

// Value returns the amount for month, or zero if the month is not present.
func (l StatementLine) Value(months []string, month string) decimal.Decimal {
	for i, m := range months {
		if m == month && i < len(l.Values) {
			return l.Values[i].Decimal
		}
	}
	return decimal.Zero
}

// StatementBatch is the result of normalizing a P&L or cashflow export.
type StatementBatch struct {
	Months     []string
	Lines      []StatementLine
	Categories []string
	Skipped    []SkippedRow
}

// summaryLabels are computed rows that exporters append; counting them would
// double the underlying lines.
var summaryLabels = map[string]bool{
	"gross profit":     true,
	"net profit":       true,
	"net income":       true,
	"net loss":         true,
	"operating profit": true,
	"ebitda":           true,
	"net cash flow":    true,
	"net cashflow":     true,
}

func isSummaryLabel(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	return l == "total" || strings.HasPrefix(l, "total ") || summaryLabels[l]
}

// NormalizeStatement converts a monthly statement export into labelled lines.
// Columns whose header reads as a month ("Jan 2024", "2024-01") become
// periods in header order. Without period columns the "Total" column is used.
func NormalizeStatement(rows []parser.Record, inf *sniffer.Inferencer) (*StatementBatch, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	labelCol, err := CategoryColumn(rows)
	if err != nil {
		return nil, err
	}

	headers := rows[0].Keys()
	schema := inf.Infer(headers)

	periods := detectPeriods(headers)
	batch := &StatementBatch{Months: periods.months}
	totalCol, _ := sniffer.FirstMatch(headers, []string{"total", "amount", "balance", "value"})

	for i, row := range rows {
		label := row.String(labelCol)
		if label == "" {
			batch.Skipped = append(batch.Skipped, SkippedRow{Row: i, Reason: ReasonMissingLabel})
			continue
		}
		if isSummaryLabel(label) {
			batch.Skipped = append(batch.Skipped, SkippedRow{Row: i, Reason: ReasonSummaryRow})
			continue
		}

		line := StatementLine{Label: label}
		if schema.Office != labelCol {
			line.Office = row.String(schema.Office)
		}
		if schema.Class != labelCol {
			line.Class = row.String(schema.Class)
		}

		if len(batch.Months) > 0 {
			values := periods.values(row)
			line.Values = amounts(values)
			line.Total = money.NewAmount(money.Sum(values...))
		} else {
			line.Total = money.NewAmount(ParseAmount(row.Cell(totalCol)))
		}

		batch.Lines = append(batch.Lines, line)
	}

	// Categories include summary rows; lines do not.
	batch.Categories, err = ExtractCategories(rows)
	if err != nil {
		return nil, err
	}

	return batch, nil
}

// periodColumns maps month headers to canonical month keys. Several headers
// may share a key; their values are summed.
type periodColumns struct {
	months []string
	index  map[string]int
	cols   []string
	keys   []string
}

func detectPeriods(headers []string) periodColumns {
	p := periodColumns{index: make(map[string]int)}
	for _, h := range headers {
		key, ok := MonthKey(h)
		if !ok {
			continue
		}
		if _, dup := p.index[key]; !dup {
			p.index[key] = len(p.months)
			p.months = append(p.months, key)
		}
		p.cols = append(p.cols, h)
		p.keys = append(p.keys, key)
	}
	return p
}

func (p periodColumns) values(row parser.Record) []decimal.Decimal {
	values := make([]decimal.Decimal, len(p.months))
	for i, h := range p.cols {
		idx := p.index[p.keys[i]]
		values[idx] = values[idx].Add(ParseAmount(row.Cell(h)))
	}
	return values
}

func amounts(values []decimal.Decimal) []money.Amount {
	out := make([]money.Amount, len(values))
	for i, v := range values {
		out[i] = money.NewAmount(v)
	}
	return out
}
