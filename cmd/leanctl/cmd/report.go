package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/report"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <backtest-result.json>",
	Short: "Render an HTML report from a backtest result file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading result file: %w", err)
		}

		result, err := report.ParseResult(data)
		if err != nil {
			return err
		}

		out, err := os.Create(reportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", reportOutput, err)
		}
		defer out.Close()

		if err := report.Render(out, result); err != nil {
			return err
		}
		info("Report written to %s.", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOutput, "output", "report.html", "path of the generated report")
	rootCmd.AddCommand(reportCmd)
}
