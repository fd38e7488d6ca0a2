package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// nativeLayouts are tried before the day-first fallback. Slash dates here are
// month-first, matching how most exporters and browsers read them.
var nativeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Mon Jan 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-06",
}

// ParseDate parses a date permissively: native layouts first, then a
// DD/MM/YYYY split on "/", "-" or ".".
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	if t, ok := parseDayFirst(s); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date: %s", s)
}

// NormalizeDate returns the canonical YYYY-MM-DD form of s.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

func parseDayFirst(s string) (time.Time, bool) {
	// Drop any time component.
	if idx := strings.IndexAny(s, " T"); idx > 0 {
		s = s[:idx]
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if len(parts[2]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1000 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false // e.g. 31/02
	}
	return t, true
}

// monthLayouts recognize period column headers such as "Jan 2024".
var monthLayouts = []string{
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"January-2006",
	"Jan-06",
	"Jan 06",
	"Jan'06",
	"2006-01",
	"01/2006",
	"1/2006",
	"2006/01",
}

// MonthKey returns the canonical "YYYY-MM" key for a period header.
func MonthKey(header string) (string, bool) {
	h := strings.TrimSpace(header)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, h); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}
