package calculator

import (
	"fmt"
	"math"

	"EquiSmart/internal/model"

	"github.com/shopspring/decimal"
)

// ValidationError rejects solver input before any computation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks solver input: quantity > 0, current average >= 0, market and target > 0.
func Validate(quantity int64, currentAvg, marketPrice, targetAvg float64) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "current quantity must be greater than 0"}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"current_average_price", currentAvg},
		{"market_price", marketPrice},
		{"target_average_price", targetAvg},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ValidationError{Field: f.name, Message: "must be a finite number"}
		}
	}
	if currentAvg < 0 {
		return &ValidationError{Field: "current_average_price", Message: "price must not be negative"}
	}
	if marketPrice <= 0 {
		return &ValidationError{Field: "market_price", Message: "price must be greater than 0"}
	}
	if targetAvg <= 0 {
		return &ValidationError{Field: "target_average_price", Message: "price must be greater than 0"}
	}
	return nil
}

// Solve computes how many shares bought at marketPrice move the average cost of
// quantity shares held at currentAvg to targetAvg.
//
// An unreachable target is not an error: the result comes back with Feasible=false.
// Only invalid input returns an error (a *ValidationError).
func Solve(quantity int64, currentAvg, marketPrice, targetAvg float64) (model.AveragingResult, error) {
	if err := Validate(quantity, currentAvg, marketPrice, targetAvg); err != nil {
		return model.AveragingResult{}, err
	}

	qty := decimal.NewFromInt(quantity)
	avg := decimal.NewFromFloat(currentAvg)
	market := decimal.NewFromFloat(marketPrice)
	target := decimal.NewFromFloat(targetAvg)
	totalCost := qty.Mul(avg)

	var shares decimal.Decimal
	switch target.Cmp(market) {
	case 0:
		shares = decimal.Zero
	case 1:
		// target above market
		n, ok := sharesFor(target.Mul(qty).Sub(totalCost), market.Sub(target))
		if !ok {
			return model.AveragingResult{}, nil
		}
		shares = n
	default:
		// target below market
		n, ok := sharesFor(totalCost.Sub(target.Mul(qty)), target.Sub(market))
		if !ok {
			return model.AveragingResult{}, nil
		}
		shares = n
	}

	newTotalQty := qty.Add(shares)
	if newTotalQty.IsZero() {
		return model.AveragingResult{}, nil
	}
	newAvg := totalCost.Add(shares.Mul(market)).Div(newTotalQty)
	profit := target.Sub(newAvg).Mul(newTotalQty)

	return model.AveragingResult{
		Feasible:        true,
		SharesToBuy:     shares.IntPart(),
		NewAverage:      newAvg.InexactFloat64(),
		ProjectedProfit: profit.InexactFloat64(),
	}, nil
}

// sharesFor returns ceil(numerator/denominator), or false when the ratio is undefined or negative.
func sharesFor(numerator, denominator decimal.Decimal) (decimal.Decimal, bool) {
	if denominator.IsZero() {
		return decimal.Zero, false
	}
	ratio := numerator.Div(denominator)
	if ratio.IsNegative() {
		return decimal.Zero, false
	}
	return ratio.Ceil(), true
}
