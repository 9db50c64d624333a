package collector

import (
	"context"
	"errors"
	"strings"

	"EquiSmart/internal/model"
)

// ErrDataUnavailable marks a quote, fundamentals or history lookup that produced nothing usable.
var ErrDataUnavailable = errors.New("data unavailable")

// DefaultLookbackDays is the history window used for volatility.
const DefaultLookbackDays = 365

// QuoteSource supplies the latest tradable price of a ticker.
type QuoteSource interface {
	FetchPrice(ctx context.Context, ticker string) (float64, error)
}

// FundamentalsProvider supplies a fundamentals snapshot. Any field may be missing.
type FundamentalsProvider interface {
	FetchFundamentals(ctx context.Context, ticker string) (*model.Fundamentals, error)
}

// PriceHistoryProvider supplies fractional daily returns over the lookback window.
// The result may be shorter than requested or empty.
type PriceHistoryProvider interface {
	FetchDailyReturns(ctx context.Context, ticker string, lookbackDays int) ([]float64, error)
}

// Fetcher is a data source implementing all three lookups.
type Fetcher interface {
	QuoteSource
	FundamentalsProvider
	PriceHistoryProvider
	Name() string
}

// providerSymbol normalizes a portfolio ticker and appends the exchange suffix, e.g. "tcs" -> "TCS.NS".
func providerSymbol(ticker, suffix string) string {
	s := strings.ToUpper(strings.TrimSpace(ticker))
	if suffix == "" || strings.HasSuffix(s, strings.ToUpper(suffix)) {
		return s
	}
	return s + strings.ToUpper(suffix)
}
