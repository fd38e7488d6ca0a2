package reporting

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
)

// AllMonths disables the month filter of ClassificationTotal.
const AllMonths = ""

// Metrics are the derived P&L figures for one slice. Cost groups carry their
// source sign, so costs are negative and every figure is a plain sum.
type Metrics struct {
	Revenue      decimal.Decimal `json:"revenue"`
	CostOfSales  decimal.Decimal `json:"costOfSales"`
	GrossProfit  decimal.Decimal `json:"grossProfit"`
	Operating    decimal.Decimal `json:"operatingExpenses"`
	EBITDA       decimal.Decimal `json:"ebitda"`
	Depreciation decimal.Decimal `json:"depreciation"`
	Financing    decimal.Decimal `json:"financing"`
	Taxes        decimal.Decimal `json:"taxes"`
	Unclassified decimal.Decimal `json:"unclassified"`
	NetProfit    decimal.Decimal `json:"netProfit"`
}

// MonthMetrics are Metrics for one month.
type MonthMetrics struct {
	Month string `json:"month"`
	Metrics
}

// OfficeMetrics are Metrics for one office across all months.
type OfficeMetrics struct {
	Office string `json:"office"`
	Metrics
}

// PnLReport is the profit and loss view of a statement dataset.
type PnLReport struct {
	Months   []string        `json:"months"`
	Office   string          `json:"office,omitempty"`
	Total    Metrics         `json:"total"`
	ByMonth  []MonthMetrics  `json:"byMonth"`
	ByOffice []OfficeMetrics `json:"byOffice"`
	// ByGroup sums each classification group per month.
	ByGroup View `json:"byGroup"`
	// Unknown lists labels the active mapping does not classify.
	Unknown []string `json:"unknown"`
	Version int64    `json:"classificationVersion"`
}

// ClassificationTotal sums the lines whose label resolves to one of groups,
// taking the value in month, or the line total when month is AllMonths.
func ClassificationTotal(lines []normalizer.StatementLine, months []string, snap *classification.Snapshot, groups []classification.Group, month string) decimal.Decimal {
	want := make(map[classification.Group]bool, len(groups))
	for _, g := range groups {
		want[g] = true
	}

	total := decimal.Zero
	for _, l := range lines {
		if !want[snap.Resolve(l.Label)] {
			continue
		}
		total = total.Add(lineValue(l, months, month))
	}
	return total
}

func lineValue(l normalizer.StatementLine, months []string, month string) decimal.Decimal {
	if month == AllMonths {
		return l.Total.Decimal
	}
	return l.Value(months, month)
}

// ComputeMetrics derives the P&L figures for lines in month, or across all
// months when month is AllMonths.
func ComputeMetrics(lines []normalizer.StatementLine, months []string, snap *classification.Snapshot, month string) Metrics {
	sum := func(groups ...classification.Group) decimal.Decimal {
		return ClassificationTotal(lines, months, snap, groups, month)
	}

	m := Metrics{
		Revenue:      sum(classification.GroupsIn(classification.BucketRevenue)...),
		CostOfSales:  sum(classification.GroupsIn(classification.BucketCostOfSales)...),
		Operating:    sum(classification.AdminCost, classification.EmploymentCost),
		Depreciation: sum(classification.Depreciation),
		Financing:    sum(classification.GroupsIn(classification.BucketFinancing)...),
		Taxes:        sum(classification.GroupsIn(classification.BucketTaxes)...),
		Unclassified: sum(classification.Unclassified),
	}
	m.GrossProfit = m.Revenue.Add(m.CostOfSales)
	m.EBITDA = m.GrossProfit.Add(m.Operating)
	m.NetProfit = m.EBITDA.Add(m.Depreciation).Add(m.Financing).Add(m.Taxes).Add(m.Unclassified)
	return m
}

// ProfitAndLoss builds the P&L report for a statement dataset. A non-empty
// office restricts the report to lines of that office.
func ProfitAndLoss(ds *normalizer.Dataset, snap *classification.Snapshot, office string) *PnLReport {
	if snap == nil {
		snap = classification.Empty()
	}
	lines := ds.Lines
	if office != "" {
		lines = filterOffice(lines, office)
	}

	r := &PnLReport{
		Months:  ds.Months,
		Office:  office,
		Total:   ComputeMetrics(lines, ds.Months, snap, AllMonths),
		Version: snap.Version,
	}

	r.ByMonth = make([]MonthMetrics, 0, len(ds.Months))
	for _, m := range ds.Months {
		r.ByMonth = append(r.ByMonth, MonthMetrics{Month: m, Metrics: ComputeMetrics(lines, ds.Months, snap, m)})
	}

	r.ByOffice = []OfficeMetrics{}
	for _, o := range offices(lines) {
		r.ByOffice = append(r.ByOffice, OfficeMetrics{Office: o, Metrics: ComputeMetrics(filterOffice(lines, o), ds.Months, snap, AllMonths)})
	}

	axes := ds.Months
	if len(axes) == 0 {
		axes = []string{"total"}
	}
	r.ByGroup = Aggregate(lines, axes,
		func(l normalizer.StatementLine) string { return string(snap.Resolve(l.Label)) },
		func(l normalizer.StatementLine) []decimal.Decimal {
			if len(ds.Months) == 0 {
				return []decimal.Decimal{l.Total.Decimal}
			}
			return decimals(l.Values)
		},
	)

	labels := make([]string, 0, len(lines))
	for _, l := range lines {
		labels = append(labels, l.Label)
	}
	r.Unknown = snap.Partition(labels).Unknown
	if r.Unknown == nil {
		r.Unknown = []string{}
	}
	return r
}

func filterOffice(lines []normalizer.StatementLine, office string) []normalizer.StatementLine {
	var out []normalizer.StatementLine
	for _, l := range lines {
		if strings.EqualFold(l.Office, office) {
			out = append(out, l)
		}
	}
	return out
}

// offices returns distinct non-empty offices in first-seen order.
func offices(lines []normalizer.StatementLine) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lines {
		key := strings.ToLower(l.Office)
		if l.Office == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l.Office)
	}
	return out
}
