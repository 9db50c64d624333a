package calculator

import (
	"errors"
	"math"

	"EquiSmart/internal/model"

	"github.com/montanaflynn/stats"
)

const (
	// TradingDaysPerYear annualizes daily volatility.
	TradingDaysPerYear = 252
	// MinReturnsForVolatility is the smallest sample the volatility is computed on.
	MinReturnsForVolatility = 31
)

// ErrNotEnoughReturns is returned when the history is too short for a volatility estimate.
var ErrNotEnoughReturns = errors.New("not enough daily returns for volatility")

// DailyReturns converts bars into close-to-close fractional returns.
// Bars with a zero previous close are skipped.
func DailyReturns(bars []model.OHLCV) []float64 {
	closes := extractCloses(bars)
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}

// AnnualizedVolatility is the population standard deviation of daily returns scaled by sqrt(252).
func AnnualizedVolatility(returns []float64) (float64, error) {
	if len(returns) < MinReturnsForVolatility {
		return 0, ErrNotEnoughReturns
	}
	sd, err := stats.StandardDeviationPopulation(returns)
	if err != nil {
		return 0, err
	}
	return sd * math.Sqrt(TradingDaysPerYear), nil
}

// TrimToLookback keeps the most recent bars covering lookbackDays calendar days.
func TrimToLookback(bars []model.OHLCV, lookbackDays int) []model.OHLCV {
	if lookbackDays <= 0 || len(bars) == 0 {
		return bars
	}
	cutoff := bars[len(bars)-1].Time.AddDate(0, 0, -lookbackDays)
	for i, b := range bars {
		if !b.Time.Before(cutoff) {
			return bars[i:]
		}
	}
	return nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
