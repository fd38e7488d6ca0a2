package parser

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
)

func TestParseCSV(t *testing.T) {
	t.Run("parses bank statement", func(t *testing.T) {
		csv := `Date,Description,Debit,Credit
2024-01-01,Opening,1000,
2024-01-05,Sale,200,
2024-01-10,Rent,,150`

		result, err := ParseCSV(strings.NewReader(csv), DefaultConfig())

		require.NoError(t, err)
		require.Len(t, result.Records, 3)
		assert.Equal(t, []string{"Date", "Description", "Debit", "Credit"}, result.Headers)
		assert.Equal(t, ',', result.Delimiter)

		first := result.Records[0]
		assert.Equal(t, []string{"Date", "Description", "Debit", "Credit"}, first.Keys())
		assert.Equal(t, Number(1000), first.Cell("Debit"))
		assert.True(t, first.Cell("Credit").IsEmpty())
		assert.Equal(t, "Opening", first.String("Description"))
	})

	t.Run("skips title lines above the header", func(t *testing.T) {
		csv := `Acme Pte Ltd
Profit and Loss
Account,Jan 2024,Feb 2024,Total
Sales,"1,000.00",500,"1,500.00"`

		result, err := ParseCSV(strings.NewReader(csv), DefaultConfig())

		require.NoError(t, err)
		assert.Equal(t, 2, result.SkipLines)
		require.Len(t, result.Records, 1)
		assert.Equal(t, Text("1,000.00"), result.Records[0].Cell("Jan 2024"))
		assert.Equal(t, Number(500), result.Records[0].Cell("Feb 2024"))
	})

	t.Run("detects semicolons", func(t *testing.T) {
		csv := "Date;Description;Debit;Credit\n2024-01-05;Sale;200;\n"

		result, err := ParseCSV(strings.NewReader(csv), DefaultConfig())

		require.NoError(t, err)
		assert.Equal(t, ';', result.Delimiter)
		assert.Len(t, result.Records, 1)
	})

	t.Run("handles single column files", func(t *testing.T) {
		csv := "Category\nRent\nSalaries\n"

		result, err := ParseCSV(strings.NewReader(csv), DefaultConfig())

		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		assert.Equal(t, "Rent", result.Records[0].String("Category"))
	})

	t.Run("strips byte order mark and pads ragged rows", func(t *testing.T) {
		csv := "\xef\xbb\xbfDate,Description,Debit,Credit\n2024-01-05,Sale\n\n"

		result, err := ParseCSV(strings.NewReader(csv), DefaultConfig())

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "Date", result.Headers[0])
		assert.Equal(t, 4, result.Records[0].Len())
		assert.True(t, result.Records[0].Cell("Credit").IsEmpty())
	})

	t.Run("keeps text when dynamic typing is off", func(t *testing.T) {
		config := DefaultConfig()
		config.DynamicTyping = false

		result, err := ParseCSV(strings.NewReader("Date,Debit\n2024-01-05,200\n"), config)

		require.NoError(t, err)
		assert.Equal(t, Text("200"), result.Records[0].Cell("Debit"))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("   \n"), DefaultConfig())
		assert.ErrorIs(t, err, sniffer.ErrEmptyFile)
	})
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Statement export"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Date", "Description", "Debit", "Credit"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"2024-01-05", "Sale", 200, nil}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"2024-01-10", "Rent", nil, 150}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := Parse("statement.xlsx", bytes.NewReader(buf.Bytes()), DefaultConfig())

	require.NoError(t, err)
	assert.Equal(t, 1, result.SkipLines)
	require.Len(t, result.Records, 2)
	assert.Equal(t, Number(200), result.Records[0].Cell("Debit"))
	assert.Equal(t, Number(150), result.Records[1].Cell("Credit"))
	assert.Equal(t, "Rent", result.Records[1].String("Description"))
}

func TestRecord_JSONPreservesOrder(t *testing.T) {
	input := `{"Zeta":"z","Alpha":12.5,"Mid":null,"Flag":true}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(input), &r))

	assert.Equal(t, []string{"Zeta", "Alpha", "Mid", "Flag"}, r.Keys())
	assert.Equal(t, Number(12.5), r.Cell("Alpha"))
	assert.True(t, r.Cell("Mid").IsEmpty())
	assert.Equal(t, Text("true"), r.Cell("Flag"))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, input[:len(input)-len(`,"Flag":true}`)]+`,"Flag":"true"}`, string(out))
}

func TestRecord_JSONRejectsNonObjects(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))

	var rows []Record
	require.NoError(t, json.Unmarshal([]byte(`[{"a":"1"},{"a":2}]`), &rows))
	assert.Len(t, rows, 2)
}

func TestRecord_JSONOutOfRangeNumberIsEmpty(t *testing.T) {
	var rows []Record
	require.NoError(t, json.Unmarshal([]byte(`[{"Description":"Sale","Debit":1e400,"Credit":-1e400},{"Debit":25}]`), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"Description", "Debit", "Credit"}, rows[0].Keys())
	assert.True(t, rows[0].Cell("Debit").IsEmpty())
	assert.True(t, rows[0].Cell("Credit").IsEmpty())
	assert.Equal(t, Text("Sale"), rows[0].Cell("Description"))
	assert.Equal(t, Number(25), rows[1].Cell("Debit"))
}

func TestFromTable(t *testing.T) {
	header := []string{"Name", "", "Name"}
	rows := [][]string{
		{"a", "007", "-12.5", "extra"},
		{" ", "", ""},
		{"b"},
	}

	records := FromTable(header, rows, true)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"Name", "column_2", "Name_2"}, records[0].Keys())
	assert.Equal(t, Text("007"), records[0].Cell("column_2"))
	assert.Equal(t, Number(-12.5), records[0].Cell("Name_2"))
	assert.True(t, records[1].Cell("Name_2").IsEmpty())
}

func TestRecordOf(t *testing.T) {
	r := RecordOf("Date", "2024-01-01", "Debit", 1000, "Credit", nil)

	assert.Equal(t, []string{"Date", "Debit", "Credit"}, r.Keys())
	assert.Equal(t, "1000", r.String("Debit"))
	assert.Equal(t, "", r.String("Missing"))
}
