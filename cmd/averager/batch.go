package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"EquiSmart/internal/batch"
	"EquiSmart/internal/model"
	"EquiSmart/internal/portfolio"

	"github.com/spf13/cobra"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		input, output string
		strategyName  string
		target        float64
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Screen a portfolio CSV and suggest averaging for losing positions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				input = a.cfg.Batch.PortfolioPath
			}
			if output == "" {
				output = a.cfg.Batch.OutputPath
			}
			if !cmd.Flags().Changed("strategy") {
				strategyName = a.cfg.Batch.Strategy
			}
			if !cmd.Flags().Changed("target") {
				target = a.cfg.Batch.ManualTarget
			}
			s, err := parseStrategy(strategyName, target)
			if err != nil {
				return err
			}

			positions, issues, err := portfolio.LoadFile(input)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, issue := range issues {
				fmt.Fprintf(out, "⚠️ skipped %s\n", issue)
			}

			col, err := a.newCollector(nil)
			if err != nil {
				return err
			}
			report, err := batch.NewOrchestrator(col, col, nil, a.log).Run(cmd.Context(), positions, s)
			if err != nil {
				return err
			}

			if len(report.Rows) == 0 {
				fmt.Fprintln(out, "⚠️ No valid stocks processed. Please check names and values.")
			} else if err := writeTable(out, report); err != nil {
				return err
			}

			if output != "" {
				if err := portfolio.ExportFile(output, report.Rows); err != nil {
					return err
				}
				fmt.Fprintf(out, "Results written to %s\n", output)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "portfolio CSV (default from config)")
	f.StringVarP(&output, "output", "o", "", "write results CSV to this path")
	f.StringVar(&strategyName, "strategy", "mean", "manual, mean, below-avg or above-market")
	f.Float64Var(&target, "target", 0, "target average price for the manual strategy")
	return cmd
}

func writeTable(w io.Writer, report *model.BatchReport) error {
	s := report.Summary
	fmt.Fprintf(w, "Total: %d  Profitable: %d  Needs averaging: %d  Skipped: %d\n\n",
		s.Total, s.Profitable, s.NeedsAveraging, report.Skipped)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STOCK\tQTY\tAVG\tMARKET\tTARGET\tBUY\tNEW AVG\tPROFIT\tRATING\tRISK\tALLOWED\tREMARK")
	for _, r := range report.Rows {
		shares := "N/A"
		if r.SharesToBuy != nil {
			shares = strconv.FormatInt(*r.SharesToBuy, 10)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%s\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			r.Ticker, r.Quantity, r.AveragePrice, r.MarketPrice,
			optional(r.TargetPrice), shares, optional(r.NewAverage), optional(r.Profit),
			r.Risk.Rating, r.Risk.RiskLevel, r.Risk.Allowed, r.Remark)
	}
	return tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
