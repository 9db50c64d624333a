package calculator

import (
	"errors"
	"testing"

	"EquiSmart/internal/model"

	"github.com/stretchr/testify/require"
)

func TestSolve(t *testing.T) {
	t.Run("average down to target", func(t *testing.T) {
		result, err := Solve(10, 100, 50, 70)
		require.NoError(t, err)
		require.True(t, result.Feasible)
		require.Equal(t, int64(15), result.SharesToBuy)
		require.InDelta(t, 70.0, result.NewAverage, 1e-9)
		require.InDelta(t, 0.0, result.ProjectedProfit, 1e-9)
	})

	t.Run("target equals market", func(t *testing.T) {
		result, err := Solve(10, 100, 100, 100)
		require.NoError(t, err)
		require.Equal(t, model.AveragingResult{
			Feasible:        true,
			SharesToBuy:     0,
			NewAverage:      100,
			ProjectedProfit: 0,
		}, result)
	})

	t.Run("target above market and average is infeasible", func(t *testing.T) {
		result, err := Solve(10, 50, 100, 200)
		require.NoError(t, err)
		require.False(t, result.Feasible)
		require.Zero(t, result.SharesToBuy)
	})

	t.Run("target below market averages up", func(t *testing.T) {
		result, err := Solve(10, 50, 100, 75)
		require.NoError(t, err)
		require.True(t, result.Feasible)
		require.Equal(t, int64(10), result.SharesToBuy)
		require.InDelta(t, 75.0, result.NewAverage, 1e-9)
	})

	t.Run("target below market and below average is infeasible", func(t *testing.T) {
		result, err := Solve(10, 100, 120, 90)
		require.NoError(t, err)
		require.False(t, result.Feasible)
	})

	t.Run("fractional share count rounds up", func(t *testing.T) {
		// 290/31 = 9.35 shares, bought as 10
		result, err := Solve(10, 100, 40, 71)
		require.NoError(t, err)
		require.True(t, result.Feasible)
		require.Equal(t, int64(10), result.SharesToBuy)
		require.LessOrEqual(t, result.NewAverage, 71.0)
		require.Greater(t, result.ProjectedProfit, 0.0)
	})

	t.Run("decimal inputs do not overshoot the ceiling", func(t *testing.T) {
		// 0.1 + 0.2 style inputs: 3 @ 0.3, buy at 0.1, target 0.2 needs exactly 3 shares
		result, err := Solve(3, 0.3, 0.1, 0.2)
		require.NoError(t, err)
		require.True(t, result.Feasible)
		require.Equal(t, int64(3), result.SharesToBuy)
		require.InDelta(t, 0.2, result.NewAverage, 1e-12)
	})
}

func TestSolve_NewAverageBetweenAverageAndMarket(t *testing.T) {
	tests := []struct {
		qty                 int64
		avg, market, target float64
	}{
		{10, 100, 50, 70},
		{25, 812.4, 640.15, 700},
		{3, 15.5, 9.2, 12.35},
		{100, 2450, 1980, 2215},
		{7, 48.3, 21.1, 47.9},
	}
	for _, tt := range tests {
		result, err := Solve(tt.qty, tt.avg, tt.market, tt.target)
		require.NoError(t, err)
		require.True(t, result.Feasible, "%+v", tt)
		require.GreaterOrEqual(t, result.SharesToBuy, int64(0))
		require.GreaterOrEqual(t, result.NewAverage, tt.market)
		require.LessOrEqual(t, result.NewAverage, tt.avg)
		// ceil means the average lands on or just under the target
		require.LessOrEqual(t, result.NewAverage, tt.target*(1+1e-6))
		require.GreaterOrEqual(t, result.ProjectedProfit, -1e-6)
	}
}

func TestSolve_Validation(t *testing.T) {
	tests := []struct {
		name                string
		qty                 int64
		avg, market, target float64
		field               string
	}{
		{"zero quantity", 0, 100, 50, 70, "quantity"},
		{"negative quantity", -5, 100, 50, 70, "quantity"},
		{"negative average", 10, -1, 50, 70, "current_average_price"},
		{"zero market", 10, 100, 0, 70, "market_price"},
		{"zero target", 10, 100, 50, 0, "target_average_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(tt.qty, tt.avg, tt.market, tt.target)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("zero average is allowed", func(t *testing.T) {
		require.NoError(t, Validate(10, 0, 50, 70))
	})
}
