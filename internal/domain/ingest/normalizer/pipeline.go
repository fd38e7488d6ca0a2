package normalizer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/money"
)

// DefaultStage is assigned to opportunities without a stage.
const DefaultStage = "Unassigned"

var hundred = decimal.NewFromInt(100)

// Opportunity is one sales pipeline entry. Probability is a percentage in
// [0, 100]. Values is the monthly revenue schedule aligned with the batch's
// Months.
type Opportunity struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Account     string          `json:"account,omitempty"`
	Stage       string          `json:"stage"`
	Office      string          `json:"office,omitempty"`
	Value       money.Amount    `json:"value"`
	Probability decimal.Decimal `json:"probability"`
	Values      []money.Amount  `json:"values,omitempty"`
}

// PipelineBatch is the result of normalizing a pipeline export.
type PipelineBatch struct {
	Months        []string
	Opportunities []Opportunity
	Skipped       []SkippedRow
}

// NormalizePipeline converts pipeline rows into opportunities. A value column
// is required; stage and probability default to "Unassigned" and 0.
func NormalizePipeline(rows []parser.Record, inf *sniffer.Inferencer) (*PipelineBatch, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	headers := rows[0].Keys()
	schema := inf.Infer(headers)
	if schema.Value == "" {
		return nil, &sniffer.SchemaInferenceError{Role: sniffer.RoleValue}
	}

	periods := detectPeriods(headers)
	batch := &PipelineBatch{Months: periods.months}

	for i, row := range rows {
		name := row.String(schema.Opportunity)
		if name == "" {
			name = row.String(schema.Account)
		}
		valueCell := row.Cell(schema.Value)
		if name == "" && valueCell.IsEmpty() {
			batch.Skipped = append(batch.Skipped, SkippedRow{Row: i, Reason: ReasonMissingValue})
			continue
		}
		if name == "" {
			name = fmt.Sprintf("Opportunity %d", i+1)
		}

		stage := row.String(schema.Stage)
		if stage == "" {
			stage = DefaultStage
		}

		opp := Opportunity{
			ID:          uuid.NewString(),
			Name:        name,
			Account:     row.String(schema.Account),
			Stage:       stage,
			Office:      row.String(schema.Office),
			Value:       money.NewAmount(ParseAmount(valueCell)),
			Probability: ParseProbability(row.Cell(schema.Probability)),
		}
		if len(periods.months) > 0 {
			opp.Values = amounts(periods.values(row))
		}

		batch.Opportunities = append(batch.Opportunities, opp)
	}

	return batch, nil
}

// ParseProbability reads a percentage. Fractions below 1 without a "%" sign
// are read as ratios ("0.25" is 25%). The result is clamped to [0, 100].
func ParseProbability(c parser.Cell) decimal.Decimal {
	p := ParseAmount(c)
	if p.IsPositive() && p.LessThan(decimal.NewFromInt(1)) && !strings.Contains(c.String(), "%") {
		p = p.Mul(hundred)
	}
	return ClampProbability(p)
}

// ClampProbability limits p to [0, 100].
func ClampProbability(p decimal.Decimal) decimal.Decimal {
	switch {
	case p.IsNegative():
		return decimal.Zero
	case p.GreaterThan(hundred):
		return hundred
	default:
		return p
	}
}
