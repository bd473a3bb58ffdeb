// =============================================================================
// CSV Reconciler - Reconcile Command
// =============================================================================
//
// This file defines the 'reconcile' command, which runs one reconciliation of
// a fin and an spo file.
//
// COMMAND USAGE:
//   reconciler reconcile --fin FILE --spo FILE [flags]
//
// FLAGS:
//   --fin          : The financial-system export
//   --spo          : The sales/payment-operations export
//   --format       : table, json, yaml, xml, csv or xlsx
//   --output, -o   : Write the report to a file instead of stdout
//   --arithmetic   : float (default) or decimal
//   --archive      : Move both inputs to the archive directory on success
//   --warning-log  : Write dropped-row warnings next to the report file
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/pipeline"
	"github.com/ginjaninja78/csv-reconciler/internal/report"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	finFile      string
	spoFile      string
	outputFormat string
	outputFile   string
	arithmetic   string
	archive      bool
	warningLog   bool
)

// =============================================================================
// RECONCILE COMMAND DEFINITION
// =============================================================================

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a fin and an spo file",
	Long: `The reconcile command sums the amount column per customer in both files and
reports every customer whose fin total differs from the spo total.

Amounts may contain thousands separators ("1,234.50"). Rows whose amount is not
a number are dropped and reported as warnings.

Without --output the report is printed to stdout: as a table on a terminal and
as JSON otherwise. With --output the format follows the file extension unless
--format is given.`,
	Example: `  reconciler reconcile --fin fin.csv --spo spo.csv
  reconciler reconcile --fin fin.xlsx --spo spo.csv --format yaml
  reconciler reconcile --fin fin.csv --spo spo.csv -o out/report.xlsx --archive`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&finFile, "fin", "", "Path to the fin file (required)")
	reconcileCmd.Flags().StringVar(&spoFile, "spo", "", "Path to the spo file (required)")
	reconcileCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: table, json, yaml, xml, csv, xlsx")
	reconcileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to this file")
	reconcileCmd.Flags().StringVar(&arithmetic, "arithmetic", "", "Arithmetic mode: float or decimal (overrides the config file)")
	reconcileCmd.Flags().BoolVar(&archive, "archive", false, "Move the inputs to the archive directory on success")
	reconcileCmd.Flags().BoolVar(&warningLog, "warning-log", false, "Write dropped-row warnings next to the report file")

	reconcileCmd.MarkFlagRequired("fin")
	reconcileCmd.MarkFlagRequired("spo")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runReconcile(cmd *cobra.Command) error {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && outputFile == "" {
		return fmt.Errorf("xlsx output requires --output")
	}

	if arithmetic != "" {
		mainConfig.Reconcile.Arithmetic = arithmetic
	}

	p, err := pipeline.New(mainConfig, logging.Default())
	if err != nil {
		return err
	}

	req := pipeline.Request{
		FinPath:    finFile,
		SpoPath:    spoFile,
		OutputPath: outputFile,
		WarningLog: warningLog,
		Archive:    archive,
	}
	if outputFile != "" {
		req.Format = format
	}

	res, err := p.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	if res.OutputFile != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", res.OutputFile)
		if res.WarningLogFile != "" {
			fmt.Fprintf(os.Stderr, "Warnings written to %s\n", res.WarningLogFile)
		}
		return nil
	}

	return report.NewFormatter(report.DetectFormat(format)).Format(cmd.OutOrStdout(), res.Reconciliation)
}
