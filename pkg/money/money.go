// Package money provides exact decimal amounts for ingestion and reporting.
// Amounts are carried as shopspring decimals and serialized with exactly two
// decimal places; go-money is used for currency-aware display.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD" // US Dollar
	SGD = "SGD" // Singapore Dollar
	EUR = "EUR" // Euro
	GBP = "GBP" // British Pound
)

// Places is the number of decimal places every serialized amount carries.
const Places = 2

// Tolerance is the absolute difference under which two amounts are considered equal.
var Tolerance = decimal.New(1, -Places)

// Amount is a decimal value rounded to two places. The zero value is 0.00.
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds d to two decimal places.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(Places)}
}

// MustParse parses a decimal string and panics on failure. Intended for tests and constants.
func MustParse(s string) Amount {
	return NewAmount(decimal.RequireFromString(s))
}

// String returns the amount with exactly two decimal places (e.g. "1234.50").
func (a Amount) String() string {
	return a.Decimal.StringFixed(Places)
}

// ApproxEqual reports whether a and b differ by less than Tolerance.
func (a Amount) ApproxEqual(b Amount) bool {
	return a.Decimal.Sub(b.Decimal).Abs().LessThan(Tolerance)
}

// MarshalJSON encodes the amount as a two decimal place string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both quoted strings and bare numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = Amount{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = NewAmount(d)
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (a Amount) MarshalCSV() (string, error) {
	return a.String(), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (a *Amount) UnmarshalCSV(s string) error {
	if strings.TrimSpace(s) == "" {
		*a = Amount{}
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = NewAmount(d)
	return nil
}

// Sum adds a list of decimals exactly.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Display formats d for humans in the given currency (e.g. "$1,234.56").
// Unknown currency codes fall back to USD formatting.
func Display(d decimal.Decimal, currencyCode string) string {
	currencyCode = strings.ToUpper(strings.TrimSpace(currencyCode))
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currencyCode = USD
		currency = money.GetCurrency(USD)
	}
	cents := d.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(cents, currencyCode).Display()
}
