package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokyo-gender/rosterkit/internal/output"
	"github.com/tokyo-gender/rosterkit/internal/report"
)

var (
	reportNew string
	reportOld string
	reportOut string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a markdown data report for a master table",
	Long: `Report summarises a master table: row counts per year, non-name
filtering, gender classification per method, staff_id panel depth and
office coverage. With --old, row counts are compared against an earlier
table.

Example:
  roster report --new Tokyo_Personnel_Master_All_Years_v2.csv
  roster report --new v2.csv --old v1.csv --output data_report.md`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportNew, "new", "", "master table to report on (required)")
	reportCmd.Flags().StringVar(&reportOld, "old", "", "earlier master table to compare against")
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "data_report.md", "output markdown path")
	_ = reportCmd.MarkFlagRequired("new")
}

func runReport(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(os.Stderr, "Loading new CSV: %s\n", reportNew)
	in := report.Input{NewPath: reportNew}
	rows, err := output.ReadFile(reportNew)
	if err != nil {
		return fmt.Errorf("load %s: %w", reportNew, err)
	}
	in.New = rows

	if reportOld != "" {
		fmt.Fprintf(os.Stderr, "Loading old CSV: %s\n", reportOld)
		old, err := output.ReadFile(reportOld)
		if err != nil {
			return fmt.Errorf("load %s: %w", reportOld, err)
		}
		in.OldPath = reportOld
		in.Old = old
	}

	md := report.Render(in)
	if err := os.WriteFile(reportOut, []byte(md), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Report saved to: %s\n", reportOut)
	return nil
}
