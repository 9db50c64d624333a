package strategy

import (
	"errors"
	"math"
	"testing"

	"EquiSmart/internal/calculator"
	"EquiSmart/internal/model"

	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// returnsWithVolatility builds 32 alternating returns whose annualized volatility is vol.
func returnsWithVolatility(vol float64) []float64 {
	a := vol / math.Sqrt(calculator.TradingDaysPerYear)
	out := make([]float64, 32)
	for i := range out {
		if i%2 == 0 {
			out[i] = a
		} else {
			out[i] = -a
		}
	}
	return out
}

func TestClassify_GoodLowRisk(t *testing.T) {
	f := model.Fundamentals{PERatio: ptr(20), ReturnOnEquity: ptr(15), EPS: ptr(5)}
	ra := Classify(f, returnsWithVolatility(0.2))

	require.Equal(t, model.RatingGood, ra.Rating)
	require.Equal(t, model.RiskLow, ra.RiskLevel)
	require.True(t, ra.Allowed)
	require.NotNil(t, ra.Volatility)
	require.InDelta(t, 0.2, *ra.Volatility, 1e-9)
	require.Equal(t, []string{
		"✔️ P/E ratio is reasonable",
		"✔️ ROE is strong",
		"✔️ EPS is positive",
	}, ra.Reasons)
}

func TestClassify_NullFundamentals(t *testing.T) {
	ra := Classify(model.Fundamentals{}, nil)

	require.Equal(t, model.RatingPoor, ra.Rating)
	require.Equal(t, model.RiskUnknown, ra.RiskLevel)
	require.False(t, ra.Allowed)
	require.Nil(t, ra.Volatility)
	require.Len(t, ra.Reasons, 3)
	for _, r := range ra.Reasons {
		require.Contains(t, r, "❌")
	}
}

func TestClassify_RatingBands(t *testing.T) {
	tests := []struct {
		name     string
		f        model.Fundamentals
		expected model.Rating
	}{
		{"three criteria", model.Fundamentals{PERatio: ptr(10), ReturnOnEquity: ptr(20), EPS: ptr(1)}, model.RatingGood},
		{"pe at threshold fails", model.Fundamentals{PERatio: ptr(25), ReturnOnEquity: ptr(20), EPS: ptr(1)}, model.RatingAverage},
		{"roe at threshold fails", model.Fundamentals{PERatio: ptr(10), ReturnOnEquity: ptr(12), EPS: ptr(1)}, model.RatingAverage},
		{"zero eps fails", model.Fundamentals{PERatio: ptr(10), ReturnOnEquity: ptr(20), EPS: ptr(0)}, model.RatingAverage},
		{"one criterion", model.Fundamentals{PERatio: ptr(10)}, model.RatingPoor},
		{"negative pe still counts", model.Fundamentals{PERatio: ptr(-3), EPS: ptr(2)}, model.RatingAverage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Classify(tt.f, nil).Rating)
		})
	}
}

func TestClassify_RiskBuckets(t *testing.T) {
	good := model.Fundamentals{PERatio: ptr(20), ReturnOnEquity: ptr(15), EPS: ptr(5)}

	t.Run("moderate is allowed", func(t *testing.T) {
		ra := Classify(good, returnsWithVolatility(0.35))
		require.Equal(t, model.RiskModerate, ra.RiskLevel)
		require.True(t, ra.Allowed)
		require.Len(t, ra.Reasons, 3)
	})

	t.Run("high is blocked with a reason", func(t *testing.T) {
		ra := Classify(good, returnsWithVolatility(0.62))
		require.Equal(t, model.RiskHigh, ra.RiskLevel)
		require.False(t, ra.Allowed)
		require.Equal(t, "⚠️ High volatility detected: 0.62", ra.Reasons[len(ra.Reasons)-1])
	})

	t.Run("short history is unknown and blocked", func(t *testing.T) {
		ra := Classify(good, returnsWithVolatility(0.1)[:30])
		require.Equal(t, model.RiskUnknown, ra.RiskLevel)
		require.Nil(t, ra.Volatility)
		require.False(t, ra.Allowed)
	})

	t.Run("average rating is blocked even at low risk", func(t *testing.T) {
		ra := Classify(model.Fundamentals{PERatio: ptr(20), EPS: ptr(5)}, returnsWithVolatility(0.1))
		require.Equal(t, model.RiskLow, ra.RiskLevel)
		require.False(t, ra.Allowed)
	})
}

func TestUnavailable(t *testing.T) {
	ra := Unavailable(errors.New("yahoo: status 404"))
	require.Equal(t, model.RatingPoor, ra.Rating)
	require.Equal(t, model.RiskUnknown, ra.RiskLevel)
	require.False(t, ra.Allowed)
	require.Equal(t, []string{"⚠️ Error fetching data: yahoo: status 404"}, ra.Reasons)
}
