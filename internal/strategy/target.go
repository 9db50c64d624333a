package strategy

import (
	"fmt"
	"math"
	"strings"

	"EquiSmart/internal/model"

	"github.com/shopspring/decimal"
)

var (
	two                = decimal.NewFromInt(2)
	belowAverageFactor = decimal.RequireFromString("0.90")
	aboveMarketFactor  = decimal.RequireFromString("1.05")
)

// kindAliases maps accepted user spellings to a StrategyKind.
var kindAliases = map[string]model.StrategyKind{
	"manual":       model.StrategyManual,
	"mean":         model.StrategyMean,
	"balanced":     model.StrategyMean,
	"below-avg":    model.StrategyBelowAverage,
	"conservative": model.StrategyBelowAverage,
	"above-market": model.StrategyAboveMarket,
	"aggressive":   model.StrategyAboveMarket,
}

// ParseKind parses a strategy name.
func ParseKind(s string) (model.StrategyKind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown strategy %q (want manual, mean, below-avg or above-market)", s)
	}
	return k, nil
}

// Describe returns a one-line explanation of a strategy.
func Describe(kind model.StrategyKind) string {
	switch kind {
	case model.StrategyManual:
		return "Manual: target average entered by hand"
	case model.StrategyMean:
		return "Mean of current average and market price (balanced)"
	case model.StrategyBelowAverage:
		return "10% below current average (conservative)"
	case model.StrategyAboveMarket:
		return "5% above market price (aggressive)"
	default:
		return string(kind)
	}
}

// Resolve turns a strategy into a target average price rounded to 2 decimals.
// Manual returns the caller supplied target untouched. Unknown kinds fall back to the mean.
func Resolve(s model.Strategy, currentAvg, marketPrice float64) float64 {
	if s.Kind == model.StrategyManual {
		return s.ManualTarget
	}
	if !finite(currentAvg) || !finite(marketPrice) {
		return 0
	}

	avg := decimal.NewFromFloat(currentAvg)
	market := decimal.NewFromFloat(marketPrice)

	var target decimal.Decimal
	switch s.Kind {
	case model.StrategyBelowAverage:
		target = avg.Mul(belowAverageFactor)
	case model.StrategyAboveMarket:
		target = market.Mul(aboveMarketFactor)
	default:
		target = avg.Add(market).Div(two)
	}
	return target.RoundBank(2).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
