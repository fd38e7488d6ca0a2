// Package normalizer turns raw ingestion records into the canonical model:
// bank transactions with an opening balance, P&L and cashflow statement lines,
// and pipeline opportunities.
package normalizer

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
)

// ParseValue converts a raw cell to a signed number. Accounting negatives are
// recognized by a "(" anywhere or a leading or trailing "-". Every character
// other than digits and "." is dropped, and the longest numeric prefix of what
// remains is parsed. Junk parses to 0; this never fails.
func ParseValue(c parser.Cell) float64 {
	switch c.Kind {
	case parser.CellNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return 0
		}
		return c.Number
	case parser.CellText:
		return ParseValueString(c.Text)
	default:
		return 0
	}
}

// ParseValueString applies ParseValue rules to text.
func ParseValueString(s string) float64 {
	digits, negative := numericPrefix(s)
	if digits == "" {
		return 0
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || v == 0 {
		return 0
	}
	if negative {
		return -math.Abs(v)
	}
	return v
}

// ParseAmount is ParseValue with exact decimal arithmetic for text cells.
func ParseAmount(c parser.Cell) decimal.Decimal {
	switch c.Kind {
	case parser.CellNumber:
		return decimal.NewFromFloat(ParseValue(c))
	case parser.CellText:
		digits, negative := numericPrefix(c.Text)
		if digits == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(digits)
		if err != nil {
			return decimal.Zero
		}
		if negative {
			return d.Abs().Neg()
		}
		return d
	default:
		return decimal.Zero
	}
}

// numericPrefix strips everything but digits and dots and returns the longest
// valid decimal prefix ("1.2.3" -> "1.2"), plus the detected sign.
func numericPrefix(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	negative := strings.Contains(s, "(") || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-")

	var b strings.Builder
	seenDot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			if seenDot {
				return trimDot(b.String()), negative
			}
			seenDot = true
			b.WriteRune(r)
		}
	}
	return trimDot(b.String()), negative
}

func trimDot(s string) string {
	if s == "." {
		return ""
	}
	if strings.HasPrefix(s, ".") {
		return "0" + s
	}
	return strings.TrimSuffix(s, ".")
}

// FormatValue renders a parsed value so that ParseValueString(FormatValue(v)) == v.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
