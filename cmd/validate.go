// =============================================================================
// CSV Reconciler - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which loads both inputs and
// lists the rows a reconciliation would drop, without writing a report.
//
// COMMAND USAGE:
//   reconciler validate --fin <file> --spo <file>
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/pipeline"
	"github.com/ginjaninja78/csv-reconciler/internal/validation"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a fin and an spo file without writing a report",
	Long: `Load both files, check that they carry the name and amount columns and list
every row that would be dropped or grouped under an empty name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(mainConfig, logging.Default())
		if err != nil {
			return err
		}

		reports, err := p.Validate(cmd.Context(), pipeline.Request{FinPath: finFile, SpoPath: spoFile})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range reports {
			fmt.Fprintf(out, "%s: %d row(s) read, %d dropped\n", r.Dataset, r.RowsRead, r.RowsDropped)
		}

		var findings []*validation.ValidationError
		for _, r := range reports {
			findings = append(findings, r.Warnings...)
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, validation.FormatErrors(findings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&finFile, "fin", "", "Path to the fin file (required)")
	validateCmd.Flags().StringVar(&spoFile, "spo", "", "Path to the spo file (required)")
	validateCmd.MarkFlagRequired("fin")
	validateCmd.MarkFlagRequired("spo")
}
