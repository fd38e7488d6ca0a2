package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
)

// ParseExcel reads the first non-empty sheet of an XLSX workbook into records.
// The first row with at least two non-blank cells is the header.
func ParseExcel(r io.Reader, config ParserConfig) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		headerIdx := findHeaderIndex(rows)
		if headerIdx < 0 {
			continue
		}

		headers := uniqueHeaders(rows[headerIdx])
		return &ParseResult{
			Records:     FromTable(rows[headerIdx], rows[headerIdx+1:], config.DynamicTyping),
			Headers:     headers,
			SkipLines:   headerIdx,
			Fingerprint: sniffer.Fingerprint(headers),
		}, nil
	}

	return nil, sniffer.ErrEmptyFile
}

func findHeaderIndex(rows [][]string) int {
	for i, row := range rows {
		if i > 20 {
			break
		}
		filled := 0
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				filled++
			}
		}
		if filled >= 2 {
			return i
		}
	}
	for i, row := range rows {
		if !blankRow(row) {
			return i
		}
	}
	return -1
}
