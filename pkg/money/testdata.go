package money

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic statement fixtures using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// ============================================================================
// Bank Statement Generation
// ============================================================================

// Statement is a generated bank export: a header, an opening-balance row and
// transaction rows, plus the balances the rows imply.
type Statement struct {
	Header  []string
	Rows    [][]string
	Opening decimal.Decimal
	Closing decimal.Decimal
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
}

var statementCategories = []string{
	"Sales", "Consulting Income", "Rent", "Salaries", "Software",
	"Travel", "Utilities", "Bank Fees", "Insurance", "Marketing",
}

var statementDescriptions = []string{
	"Client invoice payment",
	"Monthly office rent",
	"Payroll run",
	"Cloud hosting",
	"Card settlement",
	"Supplier payment",
	"Interest income",
	"Bank service charge",
	"Insurance premium",
	"Advertising spend",
}

// Statement generates a bank statement with n transaction rows.
// Debit cells are inflows and credit cells are outflows.
func (g *TestDataGenerator) Statement(n int) Statement {
	st := Statement{
		Header: []string{"Date", "Description", "Debit", "Credit", "Category"},
		Rows:   make([][]string, 0, n+1),
	}

	opening := g.cents(100000, 5000000)
	st.Opening = opening
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	st.Rows = append(st.Rows, []string{start.Format("2006-01-02"), "Opening Balance", opening.StringFixed(2), "", ""})

	st.Inflow = decimal.Zero
	st.Outflow = decimal.Zero
	for i := 0; i < n; i++ {
		date := g.faker.DateRange(start, start.AddDate(0, 6, 0))
		desc := statementDescriptions[g.faker.Number(0, len(statementDescriptions)-1)]
		category := statementCategories[g.faker.Number(0, len(statementCategories)-1)]
		amount := g.cents(1, 2500000)

		if g.faker.Bool() {
			st.Inflow = st.Inflow.Add(amount)
			st.Rows = append(st.Rows, []string{date.Format("2006-01-02"), desc, g.formatted(amount), "", category})
		} else {
			st.Outflow = st.Outflow.Add(amount)
			st.Rows = append(st.Rows, []string{date.Format("02/01/2006"), desc, "", g.formatted(amount), category})
		}
	}

	st.Closing = st.Opening.Add(st.Inflow).Sub(st.Outflow)
	return st
}

// ============================================================================
// Pipeline Generation
// ============================================================================

// Opportunity is a generated pipeline row.
type Opportunity struct {
	Name        string
	Stage       string
	Value       decimal.Decimal
	Probability int
}

var pipelineStages = []string{"Lead", "Proposal", "Negotiation", "Won", "Lost"}

// Opportunity generates a single pipeline opportunity.
func (g *TestDataGenerator) Opportunity() Opportunity {
	return Opportunity{
		Name:        g.faker.Company(),
		Stage:       pipelineStages[g.faker.Number(0, len(pipelineStages)-1)],
		Value:       g.cents(100000, 10000000),
		Probability: g.faker.Number(0, 100),
	}
}

// cents returns a random two-place decimal within [min, max] minor units.
func (g *TestDataGenerator) cents(min, max int) decimal.Decimal {
	return decimal.New(int64(g.faker.Number(min, max)), -2)
}

// formatted renders an amount the way accounting exports often do,
// sometimes with thousands separators or a currency suffix.
func (g *TestDataGenerator) formatted(d decimal.Decimal) string {
	switch g.faker.Number(0, 2) {
	case 0:
		return d.StringFixed(2)
	case 1:
		return fmt.Sprintf("%s SGD", d.StringFixed(2))
	default:
		return withThousands(d.StringFixed(2))
	}
}

func withThousands(s string) string {
	intPart, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, frac = s[:i], s[i:]
			break
		}
	}
	out := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	return string(out) + frac
}
