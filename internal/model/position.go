package model

// Position is one holding of the portfolio table.
// MarketPrice is zero when the table did not carry a price and it still has to be quoted.
type Position struct {
	Ticker       string  `validate:"required"`
	Quantity     int64   `validate:"gte=0"`
	AveragePrice float64 `validate:"gte=0"`
	MarketPrice  float64 `validate:"gte=0"`
}

// StrategyKind names an averaging policy.
type StrategyKind string

const (
	StrategyManual       StrategyKind = "manual"
	StrategyMean         StrategyKind = "mean"
	StrategyBelowAverage StrategyKind = "below-avg"
	StrategyAboveMarket  StrategyKind = "above-market"
)

func (k StrategyKind) String() string { return string(k) }

// Strategy is a policy plus the caller supplied target used by StrategyManual.
type Strategy struct {
	Kind         StrategyKind
	ManualTarget float64
}

// AveragingResult is the solver output. Feasible=false is the "target not reachable" marker,
// in which case the remaining fields carry no meaning.
type AveragingResult struct {
	Feasible        bool
	SharesToBuy     int64
	NewAverage      float64
	ProjectedProfit float64
}
