package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
)

// ParserConfig configures CSV reading.
type ParserConfig struct {
	Delimiter     rune // CSV delimiter (0 = auto-detect)
	SkipLines     int  // Lines to skip before headers (-1 = auto-detect)
	DynamicTyping bool // Convert plain numeric text to number cells
}

// DefaultConfig returns a parser config with auto-detection and dynamic typing.
func DefaultConfig() ParserConfig {
	return ParserConfig{
		Delimiter:     0,
		SkipLines:     -1,
		DynamicTyping: true,
	}
}

// ParseResult contains the records of a parsed file and what was detected.
type ParseResult struct {
	Records     []Record
	Headers     []string
	Delimiter   rune
	SkipLines   int
	Fingerprint string
}

// ParseCSV reads CSV text into ordered records. The header row and delimiter
// are detected unless configured; title lines above the header are skipped.
func ParseCSV(r io.Reader, config ParserConfig) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	delimiter, skip := config.Delimiter, config.SkipLines
	if delimiter == 0 || skip < 0 {
		detected, err := sniffer.DetectConfig(data)
		switch {
		case errors.Is(err, sniffer.ErrEmptyFile):
			return nil, err
		case err != nil:
			// Single-column files have no delimiter to detect.
			detected = &sniffer.FileConfig{Delimiter: ',', SkipLines: 0}
		}
		if delimiter == 0 {
			delimiter = detected.Delimiter
		}
		if skip < 0 {
			skip = detected.SkipLines
		}
	}

	reader := gocsv.LazyCSVReader(bytes.NewReader(dropLines(data, skip)))
	if cr, ok := reader.(*csv.Reader); ok {
		cr.Comma = delimiter
		cr.FieldsPerRecord = -1
	}

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(table) == 0 {
		return nil, sniffer.ErrEmptyFile
	}

	records := FromTable(table[0], table[1:], config.DynamicTyping)
	headers := uniqueHeaders(table[0])

	return &ParseResult{
		Records:     records,
		Headers:     headers,
		Delimiter:   delimiter,
		SkipLines:   skip,
		Fingerprint: sniffer.Fingerprint(headers),
	}, nil
}

// dropLines returns data without its first n lines.
func dropLines(data []byte, n int) []byte {
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return nil
		}
		data = data[idx+1:]
	}
	return data
}

// Parse dispatches on the file name: .xlsx and .xlsm go to ParseExcel,
// everything else is treated as delimited text.
func Parse(filename string, r io.Reader, config ParserConfig) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ParseExcel(r, config)
	default:
		return ParseCSV(r, config)
	}
}
