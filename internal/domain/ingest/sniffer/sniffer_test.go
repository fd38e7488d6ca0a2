package sniffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConfig(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		delimiter rune
		skip      int
		headers   []string
	}{
		{
			name:      "comma header on first line",
			data:      "Date,Description,Debit,Credit\n2024-01-05,Sale,200,\n",
			delimiter: ',',
			skip:      0,
			headers:   []string{"Date", "Description", "Debit", "Credit"},
		},
		{
			name:      "title lines before header",
			data:      "Acme Pte Ltd\nProfit and Loss\n\nAccount;Jan 2024;Total\nSales;10;10\n",
			delimiter: ';',
			skip:      3,
			headers:   []string{"Account", "Jan 2024", "Total"},
		},
		{
			name:      "quoted commas do not count",
			data:      "Date\tDescription\tDebit\n2024-01-01\t\"Rent, office\"\t5\n",
			delimiter: '\t',
			skip:      0,
			headers:   []string{"Date", "Description", "Debit"},
		},
		{
			name:      "data row mentioning keywords does not win",
			data:      "Date,Description,Debit,Credit\n2024-01-05,Credit card balance details,200,\n",
			delimiter: ',',
			skip:      0,
			headers:   []string{"Date", "Description", "Debit", "Credit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := DetectConfig([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.delimiter, cfg.Delimiter)
			assert.Equal(t, tt.skip, cfg.SkipLines)
			assert.Equal(t, tt.headers, cfg.Headers)
			assert.Len(t, cfg.Fingerprint, 64)
		})
	}

	t.Run("empty file", func(t *testing.T) {
		_, err := DetectConfig([]byte("  \n "))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("no delimiter anywhere", func(t *testing.T) {
		_, err := DetectConfig([]byte("Category\nRent\n"))
		assert.ErrorIs(t, err, ErrNoHeadersFound)
	})
}

func TestFingerprint_IgnoresCaseAndPunctuation(t *testing.T) {
	a := Fingerprint([]string{"Date", "Debit (SGD)"})
	b := Fingerprint([]string{" date ", "DEBIT SGD"})
	c := Fingerprint([]string{"Date", "Credit"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestInferencer_Infer(t *testing.T) {
	inf := DefaultInferencer()

	t.Run("resolves every role", func(t *testing.T) {
		headers := []string{
			"Transaction Date", "Particulars", "Debit", "Credit", "Debit (SGD)", "Credit (SGD)",
			"Account Code", "Category", "Payee", "Branch", "Tracking Class",
		}

		s := inf.Infer(headers)

		assert.Equal(t, "Transaction Date", s.Date)
		assert.Equal(t, "Particulars", s.Description)
		assert.Equal(t, "Debit", s.Debit)
		assert.Equal(t, "Credit", s.Credit)
		assert.Equal(t, "Debit (SGD)", s.DebitSecondary)
		assert.Equal(t, "Credit (SGD)", s.CreditSecondary)
		assert.Equal(t, "Category", s.Category)
		assert.Equal(t, "Account Code", s.Account)
		assert.Equal(t, "Payee", s.Contact)
		assert.Equal(t, "Branch", s.Office)
		assert.Equal(t, "Tracking Class", s.Class)
	})

	t.Run("first header in original order wins", func(t *testing.T) {
		s := inf.Infer([]string{"Value Date", "Posting Date", "Narrative", "Details"})

		assert.Equal(t, "Value Date", s.Date)
		assert.Equal(t, "Narrative", s.Description)
	})

	t.Run("secondary columns never satisfy primary roles", func(t *testing.T) {
		s := inf.Infer([]string{"DEBIT SGD", "credit sgd"})

		assert.Empty(t, s.Debit)
		assert.Empty(t, s.Credit)
		assert.Equal(t, "DEBIT SGD", s.DebitSecondary)
		assert.Equal(t, "credit sgd", s.CreditSecondary)
	})

	t.Run("category fallback uses account", func(t *testing.T) {
		s := inf.Infer([]string{"Date", "Account"})
		assert.Equal(t, "Account", s.CategoryFallback())

		s = inf.Infer([]string{"Date", "Account", "Category"})
		assert.Equal(t, "Category", s.CategoryFallback())
	})

	t.Run("pipeline roles", func(t *testing.T) {
		s := inf.Infer([]string{"Opportunity Name", "Account Name", "Stage", "Value", "Weighted Value", "Probability (%)", "Office"})

		assert.Equal(t, "Opportunity Name", s.Opportunity)
		assert.Equal(t, "Stage", s.Stage)
		assert.Equal(t, "Value", s.Value)
		assert.Equal(t, "Probability (%)", s.Probability)
		assert.Equal(t, "Office", s.Office)
	})

	t.Run("classification is not a tracking class", func(t *testing.T) {
		s := inf.Infer([]string{"Classification", "Class"})
		assert.Equal(t, "Class", s.Class)
	})
}

func TestInferencer_CustomSecondaryCurrency(t *testing.T) {
	inf := NewInferencer(DefaultRules, "MYR")

	s := inf.Infer([]string{"Debit (SGD)", "Debit (MYR)", "Credit (MYR)"})

	assert.Equal(t, "Debit (SGD)", s.Debit)
	assert.Equal(t, "Debit (MYR)", s.DebitSecondary)
	assert.Equal(t, "Credit (MYR)", s.CreditSecondary)
}

func TestInferencer_InferTransactionSchema(t *testing.T) {
	inf := DefaultInferencer()

	tests := []struct {
		name      string
		headers   []string
		secondary bool
		missing   Role
	}{
		{"complete primary", []string{"Date", "Description", "Debit", "Credit"}, false, ""},
		{"missing date", []string{"Description", "Debit", "Credit"}, false, RoleDate},
		{"missing description", []string{"Date", "Debit", "Credit"}, false, RoleDescription},
		{"missing credit", []string{"Date", "Description", "Debit"}, false, RoleCredit},
		{"secondary requires pair", []string{"Date", "Description", "Debit", "Credit", "Debit SGD"}, true, RoleCreditSecondary},
		{"complete secondary", []string{"Date", "Description", "Debit", "Credit", "Debit SGD", "Credit SGD"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inf.InferTransactionSchema(tt.headers, tt.secondary)
			if tt.missing == "" {
				require.NoError(t, err)
				return
			}

			var schemaErr *SchemaInferenceError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.missing, schemaErr.Role)
			assert.Contains(t, err.Error(), string(tt.missing))
		})
	}
}

func TestFirstMatch(t *testing.T) {
	h, ok := FirstMatch([]string{"Jan 2024", "Account Name", "Category"}, []string{"category", "account"})
	assert.True(t, ok)
	assert.Equal(t, "Account Name", h)

	_, ok = FirstMatch([]string{"Jan 2024"}, []string{"category"})
	assert.False(t, ok)
}
