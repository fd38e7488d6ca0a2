package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/reporting"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/money"
)

func newReportCommand() *cobra.Command {
	var fileType string
	var office string
	var mappingPath string
	var currency string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Compute the dashboard report for a file without a server",
		Long: "Normalizes the file and prints the cashflow, profit and loss or pipeline\n" +
			"report for its file type. Statement labels are classified with the\n" +
			"built-in mapping unless --mapping names a JSON object of label to group.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ds, err := normalizeFile(args[0], fileType, s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch ds.FileType.Route() {
			case filetype.RouteTransactions:
				summary := reporting.SummarizeTransactions(ds)
				if asJSON {
					return writeJSON(out, summary)
				}
				return writeTransactionSummary(out, summary, currency)

			case filetype.RouteStatement:
				snap, err := loadSnapshot(mappingPath)
				if err != nil {
					return err
				}
				report := reporting.ProfitAndLoss(ds, snap, office)
				if asJSON {
					return writeJSON(out, report)
				}
				return writePnL(out, report, currency)

			default:
				report := reporting.SummarizePipeline(ds)
				if asJSON {
					return writeJSON(out, report)
				}
				return writePipeline(out, report, currency)
			}
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "file type (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&office, "office", "", "restrict a P&L report to one office")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "JSON classification mapping file")
	cmd.Flags().StringVar(&currency, "currency", money.USD, "currency used to display amounts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

// loadSnapshot reads a label to group mapping, or returns the built-in one.
func loadSnapshot(path string) (*classification.Snapshot, error) {
	if path == "" {
		return classification.NewSnapshot(0, classification.DefaultMapping(), "system", time.Now()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding mapping %s: %w", path, err)
	}
	mapping, err := classification.ValidateMapping(raw)
	if err != nil {
		return nil, err
	}
	return classification.NewSnapshot(0, mapping, "local", time.Now()), nil
}

func writeTransactionSummary(w io.Writer, s *reporting.TransactionSummary, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "transactions\t%d\t\n", s.Count)
	fmt.Fprintf(tw, "opening balance\t%s\t\n", money.Display(s.Opening, currency))
	fmt.Fprintf(tw, "inflow\t%s\t\n", money.Display(s.TotalInflow, currency))
	fmt.Fprintf(tw, "outflow\t%s\t\n", money.Display(s.TotalOutflow, currency))
	fmt.Fprintf(tw, "closing balance\t%s\t\n", money.Display(s.Closing, currency))
	for _, m := range s.Months {
		fmt.Fprintf(tw, "  %s\t%s\t\n", m.Month, money.Display(m.Closing, currency))
	}
	return tw.Flush()
}

func writePnL(w io.Writer, r *reporting.PnLReport, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		name  string
		value decimal.Decimal
	}{
		{"revenue", r.Total.Revenue},
		{"cost of sales", r.Total.CostOfSales},
		{"gross profit", r.Total.GrossProfit},
		{"operating expenses", r.Total.Operating},
		{"ebitda", r.Total.EBITDA},
		{"net profit", r.Total.NetProfit},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", row.name, money.Display(row.value, currency))
	}
	if len(r.Unknown) > 0 {
		fmt.Fprintf(tw, "unclassified labels\t%d\t\n", len(r.Unknown))
	}
	return tw.Flush()
}

func writePipeline(w io.Writer, r *reporting.PipelineReport, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, st := range r.Stages {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", st.Stage, st.Count,
			money.Display(st.Value, currency), money.Display(st.Weighted, currency))
	}
	fmt.Fprintf(tw, "total\t%d\t%s\t%s\t\n", len(r.Opportunities),
		money.Display(r.TotalValue, currency), money.Display(r.TotalWeighted, currency))
	return tw.Flush()
}
