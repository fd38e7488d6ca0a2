package reporting

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
)

// ReconcileTolerance is the largest difference between an opportunity's
// monthly schedule and its value that is not flagged.
var ReconcileTolerance = decimal.NewFromFloat(0.01)

var ErrOpportunityNotFound = errors.New("opportunity not found")

var hundred = decimal.NewFromInt(100)

// WeightedValue returns value × probability / 100.
func WeightedValue(value, probability decimal.Decimal) decimal.Decimal {
	return value.Mul(probability).Div(hundred)
}

// Reconcile compares the sum of an opportunity's monthly schedule with its
// value. Opportunities without a schedule never mismatch.
func Reconcile(o normalizer.Opportunity) (scheduled decimal.Decimal, mismatch bool) {
	if len(o.Values) == 0 {
		return decimal.Zero, false
	}
	scheduled = decimal.Sum(decimal.Zero, decimals(o.Values)...)
	return scheduled, scheduled.Sub(o.Value.Decimal).Abs().GreaterThan(ReconcileTolerance)
}

// OpportunityView is an opportunity with its derived figures.
type OpportunityView struct {
	normalizer.Opportunity
	WeightedValue decimal.Decimal `json:"weightedValue"`
	Scheduled     decimal.Decimal `json:"scheduled"`
	Mismatch      bool            `json:"mismatch"`
}

// StageTotal sums opportunities in one stage.
type StageTotal struct {
	Stage    string          `json:"stage"`
	Count    int             `json:"count"`
	Value    decimal.Decimal `json:"value"`
	Weighted decimal.Decimal `json:"weighted"`
}

// PipelineReport is the pipeline view of a dataset.
type PipelineReport struct {
	Months        []string          `json:"months"`
	Opportunities []OpportunityView `json:"opportunities"`
	Stages        []StageTotal      `json:"stages"`
	// ByMonth sums the monthly schedules per stage.
	ByMonth       View            `json:"byMonth"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalWeighted decimal.Decimal `json:"totalWeighted"`
	Mismatches    int             `json:"mismatches"`
}

// SummarizePipeline builds the pipeline view of ds.
func SummarizePipeline(ds *normalizer.Dataset) *PipelineReport {
	r := &PipelineReport{
		Months:        ds.Months,
		Opportunities: make([]OpportunityView, 0, len(ds.Opportunities)),
		TotalValue:    decimal.Zero,
		TotalWeighted: decimal.Zero,
	}

	stages := make(map[string]*StageTotal)
	for _, o := range ds.Opportunities {
		v := OpportunityView{Opportunity: o, WeightedValue: WeightedValue(o.Value.Decimal, o.Probability)}
		v.Scheduled, v.Mismatch = Reconcile(o)
		if v.Mismatch {
			r.Mismatches++
		}
		r.Opportunities = append(r.Opportunities, v)

		st, ok := stages[o.Stage]
		if !ok {
			st = &StageTotal{Stage: o.Stage, Value: decimal.Zero, Weighted: decimal.Zero}
			stages[o.Stage] = st
		}
		st.Count++
		st.Value = st.Value.Add(o.Value.Decimal)
		st.Weighted = st.Weighted.Add(v.WeightedValue)

		r.TotalValue = r.TotalValue.Add(o.Value.Decimal)
		r.TotalWeighted = r.TotalWeighted.Add(v.WeightedValue)
	}

	r.Stages = make([]StageTotal, 0, len(stages))
	for _, st := range stages {
		r.Stages = append(r.Stages, *st)
	}
	sort.Slice(r.Stages, func(i, j int) bool { return r.Stages[i].Stage < r.Stages[j].Stage })

	r.ByMonth = Aggregate(ds.Opportunities, ds.Months,
		func(o normalizer.Opportunity) string { return o.Stage },
		func(o normalizer.Opportunity) []decimal.Decimal { return decimals(o.Values) },
	)
	return r
}

// UpdateProbability sets the probability of opportunity id in ds, clamped to
// [0, 100]. The value and schedule are unchanged; the returned view carries
// the recomputed weighted value.
func UpdateProbability(ds *normalizer.Dataset, id string, probability decimal.Decimal) (*OpportunityView, error) {
	for i := range ds.Opportunities {
		o := &ds.Opportunities[i]
		if o.ID != id {
			continue
		}
		o.Probability = normalizer.ClampProbability(probability)
		v := &OpportunityView{Opportunity: *o, WeightedValue: WeightedValue(o.Value.Decimal, o.Probability)}
		v.Scheduled, v.Mismatch = Reconcile(*o)
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrOpportunityNotFound, id)
}
