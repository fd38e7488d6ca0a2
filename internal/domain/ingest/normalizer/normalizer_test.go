package normalizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/money"
)

// ============================================================================
// Value Parsing
// ============================================================================

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		cell parser.Cell
		want float64
	}{
		{"accounting negative with currency", parser.Text("(1,234.56 SGD)"), -1234.56},
		{"thousands separator", parser.Text("1,234.56"), 1234.56},
		{"leading minus", parser.Text("-12"), -12},
		{"trailing minus", parser.Text("500-"), -500},
		{"currency symbol", parser.Text("$ 99.90"), 99.9},
		{"leading dot", parser.Text(".5"), 0.5},
		{"trailing dot", parser.Text("12."), 12},
		{"second dot ends the number", parser.Text("1.2.3"), 1.2},
		{"junk", parser.Text("n/a"), 0},
		{"blank", parser.Text("   "), 0},
		{"number passes through", parser.Number(42.5), 42.5},
		{"negative number", parser.Number(-7), -7},
		{"empty", parser.Empty(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.cell))
		})
	}
}

func TestParseValue_Idempotent(t *testing.T) {
	inputs := []string{"(1,234.56 SGD)", "1,000,000.01", "-0.5", "7-", "abc", "", "3.14159", "(0)"}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first := ParseValueString(in)
			assert.Equal(t, first, ParseValueString(FormatValue(first)))
		})
	}
}

func TestParseAmount_IsExact(t *testing.T) {
	got := ParseAmount(parser.Text("(1,234.56 SGD)"))
	assert.True(t, decimal.RequireFromString("-1234.56").Equal(got), got.String())

	got = ParseAmount(parser.Text("0.1"))
	assert.True(t, got.Add(ParseAmount(parser.Text("0.2"))).Equal(decimal.RequireFromString("0.3")))
}

// ============================================================================
// Dates
// ============================================================================

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-01-05", "2024-01-05", false},
		{"2024-01-05T10:30:00Z", "2024-01-05", false},
		{"Jan 5, 2024", "2024-01-05", false},
		{"5 Jan 2024", "2024-01-05", false},
		{"05/01/2024", "2024-05-01", false},
		{"13/01/2024", "2024-01-13", false},
		{"31.12.2023", "2023-12-31", false},
		{"25-12-24", "2024-12-25", false},
		{"31/02/2024", "", true},
		{"not a date", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Jan 2024", "2024-01", true},
		{"March 2024", "2024-03", true},
		{"feb-24", "2024-02", true},
		{"2024-11", "2024-11", true},
		{"12/2023", "2023-12", true},
		{"Total", "", false},
		{"Account", "", false},
		{"2024-01-05", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := MonthKey(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ============================================================================
// Transactions
// ============================================================================

func statementRows() []parser.Record {
	return []parser.Record{
		parser.RecordOf("Date", "2024-01-01", "Description", "Opening", "Debit", 1000, "Credit", ""),
		parser.RecordOf("Date", "2024-01-05", "Description", "Sale", "Debit", 200, "Credit", ""),
		parser.RecordOf("Date", "2024-01-10", "Description", "Rent", "Debit", "", "Credit", 150),
	}
}

func closingBalance(batch *TransactionBatch) decimal.Decimal {
	balance := batch.OpeningBalance.Decimal
	for _, tx := range batch.Transactions {
		balance = balance.Add(tx.Signed())
	}
	return balance
}

func TestNormalizeTransactions(t *testing.T) {
	inf := sniffer.DefaultInferencer()
	schema, err := inf.InferTransactionSchema(parser.Headers(statementRows()), false)
	require.NoError(t, err)

	t.Run("opening balance row is not a transaction", func(t *testing.T) {
		batch, err := NormalizeTransactions(statementRows(), schema, false)

		require.NoError(t, err)
		assert.Equal(t, "1000.00", batch.OpeningBalance.String())
		require.Len(t, batch.Transactions, 2)

		sale, rent := batch.Transactions[0], batch.Transactions[1]
		assert.Equal(t, Inflow, sale.Type)
		assert.Equal(t, "200.00", sale.Amount.String())
		assert.Equal(t, Outflow, rent.Type)
		assert.Equal(t, "150.00", rent.Amount.String())
		assert.Equal(t, "1050", closingBalance(batch).String())
		assert.Nil(t, batch.OpeningBalanceSecondary)
	})

	t.Run("credit on opening row is negative", func(t *testing.T) {
		rows := statementRows()
		rows[0] = parser.RecordOf("Date", "2024-01-01", "Description", "Overdrawn", "Debit", "", "Credit", "500")

		batch, err := NormalizeTransactions(rows, schema, false)

		require.NoError(t, err)
		assert.Equal(t, "-500.00", batch.OpeningBalance.String())
	})

	t.Run("empty opening row is zero", func(t *testing.T) {
		rows := statementRows()
		rows[0] = parser.RecordOf("Date", "", "Description", "", "Debit", "", "Credit", "")

		batch, err := NormalizeTransactions(rows, schema, false)

		require.NoError(t, err)
		assert.True(t, batch.OpeningBalance.IsZero())
	})

	t.Run("bad rows are skipped, not fatal", func(t *testing.T) {
		rows := append(statementRows(),
			parser.RecordOf("Date", "", "Description", "No date", "Debit", 5, "Credit", ""),
			parser.RecordOf("Date", "2024-01-11", "Description", " ", "Debit", 5, "Credit", ""),
			parser.RecordOf("Date", "2024-01-12", "Description", "Nothing", "Debit", "0", "Credit", ""),
			parser.RecordOf("Date", "someday", "Description", "Bad date", "Debit", 5, "Credit", ""),
		)

		batch, err := NormalizeTransactions(rows, schema, false)

		require.NoError(t, err)
		assert.Len(t, batch.Transactions, 2)
		assert.Equal(t, []SkippedRow{
			{Row: 3, Reason: ReasonMissingDate},
			{Row: 4, Reason: ReasonMissingDescription},
			{Row: 5, Reason: ReasonNoAmount},
			{Row: 6, Reason: ReasonInvalidDate},
		}, batch.Skipped)
	})

	t.Run("category defaults to Uncategorized", func(t *testing.T) {
		batch, err := NormalizeTransactions(statementRows(), schema, false)

		require.NoError(t, err)
		for _, tx := range batch.Transactions {
			assert.Equal(t, DefaultCategory, tx.Category)
			assert.Equal(t, tx.Amount.String(), tx.AmountSecondary.String())
		}
	})

	t.Run("only positive amounts set the direction", func(t *testing.T) {
		rows := statementRows()[:1]
		rows = append(rows,
			parser.RecordOf("Date", "2024-01-05", "Description", "Reversal", "Debit", "(20.00)", "Credit", "30.00"),
			parser.RecordOf("Date", "2024-01-06", "Description", "Negative debit", "Debit", "-15", "Credit", ""),
			parser.RecordOf("Date", "2024-01-07", "Description", "Negative credit", "Debit", "", "Credit", "(8)"),
		)

		batch, err := NormalizeTransactions(rows, schema, false)

		require.NoError(t, err)
		require.Len(t, batch.Transactions, 1)
		assert.Equal(t, Outflow, batch.Transactions[0].Type)
		assert.Equal(t, "30.00", batch.Transactions[0].Amount.String())
		assert.Equal(t, []SkippedRow{
			{Row: 2, Reason: ReasonNoAmount},
			{Row: 3, Reason: ReasonNoAmount},
		}, batch.Skipped)
		assert.Equal(t, "970", closingBalance(batch).String())
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := NormalizeTransactions(nil, schema, false)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestNormalizeTransactions_Secondary(t *testing.T) {
	rows := []parser.Record{
		parser.RecordOf("Date", "2024-01-01", "Description", "Opening", "Debit", 1000, "Credit", "", "Debit SGD", 1350, "Credit SGD", "", "Account", "Bank"),
		parser.RecordOf("Date", "2024-01-05", "Description", "Sale", "Debit", 200, "Credit", "", "Debit SGD", "270.00", "Credit SGD", "", "Account", "Sales"),
		parser.RecordOf("Date", "2024-01-10", "Description", "Rent", "Debit", "", "Credit", 150, "Debit SGD", "", "Credit SGD", "202.50", "Account", ""),
	}

	schema, err := sniffer.DefaultInferencer().InferTransactionSchema(parser.Headers(rows), true)
	require.NoError(t, err)

	batch, err := NormalizeTransactions(rows, schema, true)

	require.NoError(t, err)
	require.NotNil(t, batch.OpeningBalanceSecondary)
	assert.Equal(t, "1350.00", batch.OpeningBalanceSecondary.String())
	require.Len(t, batch.Transactions, 2)
	assert.Equal(t, "270.00", batch.Transactions[0].AmountSecondary.String())
	assert.Equal(t, "202.50", batch.Transactions[1].AmountSecondary.String())
	assert.Equal(t, "Sales", batch.Transactions[0].Category)
	assert.Equal(t, DefaultCategory, batch.Transactions[1].Category)
}

func TestNormalizeTransactions_GeneratedStatementsBalance(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		gen := money.NewTestDataGeneratorWithSeed(seed)
		st := gen.Statement(60)
		rows := parser.FromTable(st.Header, st.Rows, true)

		ds, err := New(nil).Normalize(filetype.Transactions, rows)
		require.NoError(t, err)

		inflow, outflow := decimal.Zero, decimal.Zero
		balance := ds.OpeningBalance.Decimal
		for _, tx := range ds.Transactions {
			if tx.Type == Inflow {
				inflow = inflow.Add(tx.Amount.Decimal)
			} else {
				outflow = outflow.Add(tx.Amount.Decimal)
			}
			balance = balance.Add(tx.Signed())
		}

		assert.Len(t, ds.Transactions, 60)
		assert.Empty(t, ds.Skipped)
		assert.True(t, st.Opening.Equal(ds.OpeningBalance.Decimal), "opening seed %d", seed)
		assert.True(t, st.Inflow.Equal(inflow), "inflow seed %d", seed)
		assert.True(t, st.Outflow.Equal(outflow), "outflow seed %d", seed)
		assert.True(t, money.NewAmount(st.Closing).ApproxEqual(money.NewAmount(balance)), "closing seed %d", seed)
	}
}

// ============================================================================
// Categories
// ============================================================================

func TestExtractCategories(t *testing.T) {
	t.Run("sorted and de-duplicated", func(t *testing.T) {
		rows := []parser.Record{
			parser.RecordOf("Account", "Sales", "Jan 2024", 10),
			parser.RecordOf("Account", " Rent ", "Jan 2024", 5),
			parser.RecordOf("Account", "Sales", "Jan 2024", 1),
			parser.RecordOf("Account", "", "Jan 2024", 1),
		}

		got, err := ExtractCategories(rows)

		require.NoError(t, err)
		assert.Equal(t, []string{"Rent", "Sales"}, got)
	})

	t.Run("falls back to first text column", func(t *testing.T) {
		rows := []parser.Record{
			parser.RecordOf("Code", 4000, "Heading", "Revenue", "Jan 2024", 10),
			parser.RecordOf("Code", 5000, "Heading", "Cost of Sales", "Jan 2024", 4),
		}

		got, err := ExtractCategories(rows)

		require.NoError(t, err)
		assert.Equal(t, []string{"Cost of Sales", "Revenue"}, got)
	})

	t.Run("no candidate column", func(t *testing.T) {
		rows := []parser.Record{parser.RecordOf("Jan 2024", 10, "Feb 2024", 12)}

		_, err := ExtractCategories(rows)

		assert.ErrorIs(t, err, ErrNoCategoryColumn)
	})
}

// ============================================================================
// Statements and Pipeline
// ============================================================================

func TestNormalizeStatement(t *testing.T) {
	inf := sniffer.DefaultInferencer()

	t.Run("monthly columns", func(t *testing.T) {
		rows := []parser.Record{
			parser.RecordOf("Account", "Sales", "Office", "SG", "Jan 2024", "1,000.00", "Feb 2024", 500, "Total", 1500),
			parser.RecordOf("Account", "Rent", "Office", "SG", "Jan 2024", "(200)", "Feb 2024", "(200)", "Total", "(400)"),
			parser.RecordOf("Account", "Total Revenue", "Office", "", "Jan 2024", 1000, "Feb 2024", 500, "Total", 1500),
			parser.RecordOf("Account", "", "Office", "", "Jan 2024", "", "Feb 2024", "", "Total", ""),
		}

		batch, err := NormalizeStatement(rows, inf)

		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01", "2024-02"}, batch.Months)
		require.Len(t, batch.Lines, 2)
		assert.Equal(t, "Sales", batch.Lines[0].Label)
		assert.Equal(t, "SG", batch.Lines[0].Office)
		assert.Equal(t, "1500.00", batch.Lines[0].Total.String())
		assert.Equal(t, "-200.00", batch.Lines[1].Value(batch.Months, "2024-02").StringFixed(2))
		assert.Equal(t, []string{"Rent", "Sales", "Total Revenue"}, batch.Categories)
		assert.Equal(t, []SkippedRow{{Row: 2, Reason: ReasonSummaryRow}, {Row: 3, Reason: ReasonMissingLabel}}, batch.Skipped)
	})

	t.Run("single total column", func(t *testing.T) {
		rows := []parser.Record{
			parser.RecordOf("Category", "Sales", "Amount", "2,500"),
			parser.RecordOf("Category", "Wages", "Amount", "(900)"),
		}

		batch, err := NormalizeStatement(rows, inf)

		require.NoError(t, err)
		assert.Empty(t, batch.Months)
		assert.Equal(t, "2500.00", batch.Lines[0].Total.String())
		assert.Equal(t, "-900.00", batch.Lines[1].Total.String())
	})
}

func TestNormalizePipeline(t *testing.T) {
	inf := sniffer.DefaultInferencer()

	t.Run("opportunities with schedule", func(t *testing.T) {
		rows := []parser.Record{
			parser.RecordOf("Opportunity Name", "Acme renewal", "Stage", "Proposal", "Value", "10,000", "Probability", 25, "Jan 2024", 4000, "Feb 2024", 6000),
			parser.RecordOf("Opportunity Name", "Globex", "Stage", "", "Value", 5000, "Probability", "0.5", "Jan 2024", "", "Feb 2024", 5000),
			parser.RecordOf("Opportunity Name", "Initech", "Stage", "Won", "Value", 100, "Probability", "150%", "Jan 2024", "", "Feb 2024", ""),
			parser.RecordOf("Opportunity Name", "", "Stage", "", "Value", "", "Probability", "", "Jan 2024", "", "Feb 2024", ""),
		}

		batch, err := NormalizePipeline(rows, inf)

		require.NoError(t, err)
		require.Len(t, batch.Opportunities, 3)
		assert.Equal(t, []string{"2024-01", "2024-02"}, batch.Months)

		acme := batch.Opportunities[0]
		assert.Equal(t, "10000.00", acme.Value.String())
		assert.Equal(t, "25", acme.Probability.String())
		assert.Equal(t, "4000.00", acme.Values[0].String())

		assert.Equal(t, DefaultStage, batch.Opportunities[1].Stage)
		assert.Equal(t, "50", batch.Opportunities[1].Probability.String())
		assert.Equal(t, "100", batch.Opportunities[2].Probability.String())
		assert.Equal(t, []SkippedRow{{Row: 3, Reason: ReasonMissingValue}}, batch.Skipped)
	})

	t.Run("value column is required", func(t *testing.T) {
		rows := []parser.Record{parser.RecordOf("Opportunity Name", "Acme", "Stage", "Lead")}

		_, err := NormalizePipeline(rows, inf)

		var schemaErr *sniffer.SchemaInferenceError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, sniffer.RoleValue, schemaErr.Role)
	})
}

// ============================================================================
// Dispatch and Export
// ============================================================================

func TestNormalizer_Normalize(t *testing.T) {
	n := New(nil)

	t.Run("transactions route", func(t *testing.T) {
		ds, err := n.Normalize(filetype.Transactions, statementRows())

		require.NoError(t, err)
		assert.Equal(t, filetype.Transactions, ds.FileType)
		assert.Equal(t, 3, ds.RowCount)
		assert.Equal(t, "Debit", ds.Schema.Debit)
		assert.Equal(t, []string{DefaultCategory}, ds.Categories)
		assert.NotEmpty(t, ds.Fingerprint)
	})

	t.Run("secondary route requires the secondary pair", func(t *testing.T) {
		_, err := n.Normalize(filetype.SankeySecondary, statementRows())

		var schemaErr *sniffer.SchemaInferenceError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, sniffer.RoleDebitSecondary, schemaErr.Role)
	})

	t.Run("statement route", func(t *testing.T) {
		rows := []parser.Record{parser.RecordOf("Account", "Sales", "Jan 2024", 10)}

		ds, err := n.Normalize(filetype.PnL, rows)

		require.NoError(t, err)
		assert.Equal(t, []string{"Sales"}, ds.Categories)
		assert.Len(t, ds.Lines, 1)
		assert.Empty(t, ds.Transactions)
	})

	t.Run("statement categories match the extractor", func(t *testing.T) {
		rows := []parser.Record{
			parser.RecordOf("Account", "Sales", "Jan 2024", 100),
			parser.RecordOf("Account", "Total Income", "Jan 2024", 100),
			parser.RecordOf("Account", "Rent", "Jan 2024", -40),
			parser.RecordOf("Account", "Net Profit", "Jan 2024", 60),
		}

		ds, err := n.Normalize(filetype.PnL, rows)
		require.NoError(t, err)

		extracted, err := ExtractCategories(rows)
		require.NoError(t, err)
		assert.Equal(t, []string{"Net Profit", "Rent", "Sales", "Total Income"}, ds.Categories)
		assert.Equal(t, extracted, ds.Categories)
		assert.Len(t, ds.Lines, 2)
	})

	t.Run("rejects unknown types and empty input", func(t *testing.T) {
		_, err := n.Normalize(filetype.FileType("ledger"), statementRows())
		assert.ErrorIs(t, err, filetype.ErrUnknownFileType)

		_, err = n.Normalize(filetype.Cashflow, nil)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestExportTransactionsCSV(t *testing.T) {
	ds, err := New(nil).Normalize(filetype.Transactions, statementRows())
	require.NoError(t, err)

	out, err := ExportTransactionsCSV(ds.Transactions)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,date,description,category,contact,office,type,amount,amount_secondary", lines[0])
	assert.True(t, strings.HasSuffix(lines[2], ",2024-01-10,Rent,Uncategorized,,,outflow,150.00,150.00"), lines[2])
}

func TestExportStatementCSV(t *testing.T) {
	lines := []StatementLine{{Label: "Sales", Values: []money.Amount{money.MustParse("10"), money.MustParse("12.5")}}}

	out, err := ExportStatementCSV([]string{"2024-01", "2024-02"}, lines)

	require.NoError(t, err)
	assert.Equal(t, "label,office,class,month,amount\nSales,,,2024-01,10.00\nSales,,,2024-02,12.50\n", string(out))
}
