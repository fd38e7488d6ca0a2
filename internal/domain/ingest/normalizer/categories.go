package normalizer

import (
	"errors"
	"sort"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
)

// ErrNoCategoryColumn is returned when no column can hold category labels.
var ErrNoCategoryColumn = errors.New("no category column found")

// CategoryKeywords locate the label column of a P&L export.
var CategoryKeywords = []string{
	"category", "class", "classification", "line_item", "description",
	"account", "account_name", "item", "type", "category_name",
}

// ExtractCategories returns the sorted, de-duplicated labels of a P&L export.
func ExtractCategories(rows []parser.Record) ([]string, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	col, err := CategoryColumn(rows)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, row := range rows {
		if label := row.String(col); label != "" {
			seen[label] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for label := range seen {
		categories = append(categories, label)
	}
	sort.Strings(categories)
	return categories, nil
}

// CategoryColumn finds the label column by keyword, falling back to the first
// column whose value in the first row is non-empty text.
func CategoryColumn(rows []parser.Record) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoCategoryColumn
	}

	headers := rows[0].Keys()
	if col, ok := sniffer.FirstMatch(headers, CategoryKeywords); ok {
		return col, nil
	}

	for _, h := range headers {
		c := rows[0].Cell(h)
		if c.Kind == parser.CellText && !c.IsEmpty() {
			return h, nil
		}
	}
	return "", ErrNoCategoryColumn
}
