package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/sniffer"
)

func newNormalizeCommand() *cobra.Command {
	var fileType string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Normalize a CSV or Excel file and summarize the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ds, err := normalizeFile(args[0], fileType, s)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ds)
			}
			return writeDatasetSummary(cmd.OutOrStdout(), ds)
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "file type (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full normalized dataset as JSON")

	return cmd
}

func newCategoriesCommand() *cobra.Command {
	var classify bool
	var mappingPath string

	cmd := &cobra.Command{
		Use:   "categories <file>",
		Short: "List the distinct category labels of a P&L export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := readFile(args[0])
			if err != nil {
				return err
			}
			labels, err := normalizer.ExtractCategories(res.Records)
			if err != nil {
				return err
			}
			if !classify {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"categories": labels})
			}

			snap, err := loadSnapshot(mappingPath)
			if err != nil {
				return err
			}
			p := snap.Partition(labels)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"categories":  labels,
				"known":       p.Known,
				"unknown":     p.Unknown,
				"suggestions": snap.Suggest(p.Unknown, classification.DefaultSuggestThreshold),
			})
		},
	}

	cmd.Flags().BoolVar(&classify, "classify", false, "partition the labels by classification bucket")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "JSON classification mapping file")

	return cmd
}

func newExportCommand() *cobra.Command {
	var fileType string
	var output string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Normalize a file and write it back out as canonical CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ds, err := normalizeFile(args[0], fileType, s)
			if err != nil {
				return err
			}

			var out []byte
			switch ds.FileType.Route() {
			case filetype.RouteTransactions:
				out, err = normalizer.ExportTransactionsCSV(ds.Transactions)
			case filetype.RouteStatement:
				out, err = normalizer.ExportStatementCSV(ds.Months, ds.Lines)
			default:
				return fmt.Errorf("export is not supported for %s files", ds.FileType)
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "file type (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func readFile(path string) (*parser.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := parser.Parse(filepath.Base(path), f, parser.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return res, nil
}

func normalizeFile(path, fileType string, s Settings) (*normalizer.Dataset, error) {
	ft, err := filetype.Parse(fileType)
	if err != nil {
		return nil, err
	}
	res, err := readFile(path)
	if err != nil {
		return nil, err
	}
	n := normalizer.New(sniffer.NewInferencer(sniffer.DefaultRules, s.SecondaryCurrency))
	return n.Normalize(ft, res.Records)
}

func writeDatasetSummary(w io.Writer, ds *normalizer.Dataset) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file type\t%s\n", ds.FileType)
	fmt.Fprintf(tw, "fingerprint\t%s\n", ds.Fingerprint)
	fmt.Fprintf(tw, "rows\t%d\n", ds.RowCount)
	switch ds.FileType.Route() {
	case filetype.RouteTransactions:
		fmt.Fprintf(tw, "transactions\t%d\n", len(ds.Transactions))
		fmt.Fprintf(tw, "opening balance\t%s\n", ds.OpeningBalance)
	case filetype.RouteStatement:
		fmt.Fprintf(tw, "lines\t%d\n", len(ds.Lines))
		fmt.Fprintf(tw, "months\t%d\n", len(ds.Months))
	case filetype.RoutePipeline:
		fmt.Fprintf(tw, "opportunities\t%d\n", len(ds.Opportunities))
	}
	fmt.Fprintf(tw, "skipped\t%d\n", len(ds.Skipped))
	for _, sk := range ds.Skipped {
		fmt.Fprintf(tw, "  row %d\t%s\n", sk.Row, sk.Reason)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
