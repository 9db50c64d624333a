package strategy

import (
	"fmt"

	"EquiSmart/internal/calculator"
	"EquiSmart/internal/model"
)

const (
	maxPERatio        = 25.0
	minReturnOnEquity = 12.0 // percent
	lowVolatility     = 0.25
	highVolatility    = 0.5
)

// criterion is the outcome of one fundamentals check.
type criterion struct {
	Name   string
	Passed bool
	Reason string
}

// Classify scores fundamentals and volatility into a rating, risk bucket and averaging gate.
// It never fails: missing values count against the rating and short histories give RiskUnknown.
func Classify(f model.Fundamentals, dailyReturns []float64) model.RiskAssessment {
	criteria := []criterion{scorePE(f), scoreROE(f), scoreEPS(f)}

	score := 0
	reasons := make([]string, 0, len(criteria)+1)
	for _, c := range criteria {
		if c.Passed {
			score++
		}
		reasons = append(reasons, c.Reason)
	}

	var volatility *float64
	if v, err := calculator.AnnualizedVolatility(dailyReturns); err == nil {
		volatility = &v
	}
	risk := riskLevel(volatility)
	if risk == model.RiskHigh {
		reasons = append(reasons, fmt.Sprintf("⚠️ High volatility detected: %.2f", *volatility))
	}

	rating := rate(score)
	return model.RiskAssessment{
		Fundamentals: f,
		Volatility:   volatility,
		Rating:       rating,
		RiskLevel:    risk,
		Allowed:      rating == model.RatingGood && (risk == model.RiskLow || risk == model.RiskModerate),
		Reasons:      reasons,
	}
}

// Unavailable is the verdict used when fundamentals or history could not be fetched.
func Unavailable(err error) model.RiskAssessment {
	return model.RiskAssessment{
		Rating:    model.RatingPoor,
		RiskLevel: model.RiskUnknown,
		Allowed:   false,
		Reasons:   []string{fmt.Sprintf("⚠️ Error fetching data: %v", err)},
	}
}

func rate(score int) model.Rating {
	switch {
	case score >= 3:
		return model.RatingGood
	case score == 2:
		return model.RatingAverage
	default:
		return model.RatingPoor
	}
}

func riskLevel(volatility *float64) model.RiskLevel {
	switch {
	case volatility == nil:
		return model.RiskUnknown
	case *volatility < lowVolatility:
		return model.RiskLow
	case *volatility < highVolatility:
		return model.RiskModerate
	default:
		return model.RiskHigh
	}
}

func scorePE(f model.Fundamentals) criterion {
	if f.PERatio != nil && *f.PERatio < maxPERatio {
		return criterion{Name: "P/E", Passed: true, Reason: "✔️ P/E ratio is reasonable"}
	}
	return criterion{Name: "P/E", Reason: "❌ P/E ratio too high or unavailable"}
}

func scoreROE(f model.Fundamentals) criterion {
	if f.ReturnOnEquity != nil && *f.ReturnOnEquity > minReturnOnEquity {
		return criterion{Name: "ROE", Passed: true, Reason: "✔️ ROE is strong"}
	}
	return criterion{Name: "ROE", Reason: "❌ ROE is weak or unavailable"}
}

func scoreEPS(f model.Fundamentals) criterion {
	if f.EPS != nil && *f.EPS > 0 {
		return criterion{Name: "EPS", Passed: true, Reason: "✔️ EPS is positive"}
	}
	return criterion{Name: "EPS", Reason: "❌ EPS is negative or missing"}
}
