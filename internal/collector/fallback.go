package collector

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// FallbackQuotes asks Primary for a price and, when it fails or returns no usable
// price, asks Secondary.
type FallbackQuotes struct {
	Primary   QuoteSource
	Secondary QuoteSource

	log *zap.SugaredLogger
}

// NewFallbackQuotes creates a FallbackQuotes. A nil logger is allowed.
func NewFallbackQuotes(primary, secondary QuoteSource, log *zap.SugaredLogger) *FallbackQuotes {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FallbackQuotes{Primary: primary, Secondary: secondary, log: log}
}

func (f *FallbackQuotes) FetchPrice(ctx context.Context, ticker string) (float64, error) {
	p, err := f.Primary.FetchPrice(ctx, ticker)
	if err == nil && usablePrice(p) {
		return p, nil
	}
	if err == nil {
		err = fmt.Errorf("unusable price %v", p)
	}
	f.log.Warnw("primary quote failed, trying fallback", "ticker", ticker, "error", err)

	p2, err2 := f.Secondary.FetchPrice(ctx, ticker)
	if err2 != nil {
		return 0, fmt.Errorf("primary: %v; fallback: %w", err, err2)
	}
	return p2, nil
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
