package main

import (
	"errors"
	"fmt"

	"EquiSmart/internal/calculator"
	"EquiSmart/internal/model"
	"EquiSmart/internal/notifier"
	"EquiSmart/internal/strategy"

	"github.com/spf13/cobra"
)

func newSolveCmd(a *app) *cobra.Command {
	var (
		ticker       string
		quantity     int64
		avg, market  float64
		target       float64
		strategyName string
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Compute how many shares to buy to reach a target average",
		Example: "  averager solve --quantity 10 --avg 100 --market 50 --target 70\n" +
			"  averager solve --ticker TCS --quantity 10 --avg 3800 --strategy below-avg",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if market == 0 && ticker != "" {
				col, err := a.newCollector(nil)
				if err != nil {
					return err
				}
				p, err := col.Price(cmd.Context(), ticker)
				if err != nil {
					fmt.Fprintf(out, "Could not fetch live price for %s. Please enter it with --market.\n", ticker)
					return err
				}
				fmt.Fprintf(out, "Live price for %s: ₹%.2f\n", ticker, p)
				market = p
			}

			s, err := parseStrategy(strategyName, target)
			if err != nil {
				return err
			}
			targetAvg := strategy.Resolve(s, avg, market)
			if s.Kind != model.StrategyManual {
				fmt.Fprintf(out, "Strategy: %s → target ₹%.2f\n", strategy.Describe(s.Kind), targetAvg)
			}

			res, err := calculator.Solve(quantity, avg, market, targetAvg)
			var verr *calculator.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(out, "❌ %s\n", verr.Message)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprint(out, notifier.FormatSolveResult(market, res))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&ticker, "ticker", "", "NSE code used to fetch the live price when --market is omitted")
	f.Int64Var(&quantity, "quantity", 0, "shares currently held")
	f.Float64Var(&avg, "avg", 0, "current average price")
	f.Float64Var(&market, "market", 0, "current market price")
	f.Float64Var(&target, "target", 0, "target average price (manual strategy)")
	f.StringVar(&strategyName, "strategy", "manual", "manual, mean, below-avg or above-market")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("avg")
	return cmd
}
