package collector

import (
	"context"
	"fmt"
	"strings"

	"EquiSmart/internal/metrics"
	"EquiSmart/internal/model"
	"EquiSmart/internal/strategy"

	"go.uber.org/zap"
)

// MockFetcher returns controllable fixed data for development and testing.
// Prices are keyed by upper-case ticker; Price is the fallback for unknown tickers.
type MockFetcher struct {
	Price        float64
	Prices       map[string]float64
	Fundamentals *model.Fundamentals
	Returns      []float64
	Err          error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrice(_ context.Context, ticker string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if p, ok := m.Prices[strings.ToUpper(ticker)]; ok {
		return p, nil
	}
	return m.Price, nil
}

func (m *MockFetcher) FetchFundamentals(_ context.Context, _ string) (*model.Fundamentals, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Fundamentals == nil {
		return &model.Fundamentals{}, nil
	}
	f := *m.Fundamentals
	return &f, nil
}

func (m *MockFetcher) FetchDailyReturns(_ context.Context, _ string, lookbackDays int) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Returns != nil {
		return m.Returns, nil
	}
	return generateMockReturns(lookbackDays), nil
}

// generateMockReturns alternates +/-1% moves, about 16% annualized.
func generateMockReturns(count int) []float64 {
	returns := make([]float64, count)
	for i := range returns {
		if i%2 == 0 {
			returns[i] = 0.01
		} else {
			returns[i] = -0.01
		}
	}
	return returns
}

// Collector combines a quote source, a fundamentals provider and a history provider.
// It turns provider faults into ErrDataUnavailable for prices and into the
// conservative verdict for risk assessments.
type Collector struct {
	Quotes       QuoteSource
	Fundamentals FundamentalsProvider
	History      PriceHistoryProvider
	LookbackDays int

	log     *zap.SugaredLogger
	metrics *metrics.Recorder
}

// NewCollector creates a Collector. A nil logger or metrics recorder is allowed.
func NewCollector(quotes QuoteSource, fundamentals FundamentalsProvider, history PriceHistoryProvider,
	lookbackDays int, log *zap.SugaredLogger, m *metrics.Recorder) *Collector {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Collector{
		Quotes:       quotes,
		Fundamentals: fundamentals,
		History:      history,
		LookbackDays: lookbackDays,
		log:          log,
		metrics:      m,
	}
}

// NewFromFetcher builds a Collector that takes all three lookups from one source.
func NewFromFetcher(f Fetcher, lookbackDays int, log *zap.SugaredLogger, m *metrics.Recorder) *Collector {
	return NewCollector(f, f, f, lookbackDays, log, m)
}

// Price returns a positive market price or an error wrapping ErrDataUnavailable.
func (c *Collector) Price(ctx context.Context, ticker string) (float64, error) {
	p, err := c.Quotes.FetchPrice(ctx, ticker)
	if err != nil {
		c.metrics.RecordProviderError("quote")
		return 0, fmt.Errorf("price for %s: %w: %v", ticker, ErrDataUnavailable, err)
	}
	if !usablePrice(p) {
		return 0, fmt.Errorf("price for %s: %w: got %v", ticker, ErrDataUnavailable, p)
	}
	return p, nil
}

// Assess classifies a ticker. Any provider fault yields the Poor/Unknown/not-allowed verdict.
func (c *Collector) Assess(ctx context.Context, ticker string) model.RiskAssessment {
	fund, err := c.Fundamentals.FetchFundamentals(ctx, ticker)
	if err != nil {
		c.metrics.RecordProviderError("fundamentals")
		c.log.Warnw("fundamentals lookup failed", "ticker", ticker, "error", err)
		return strategy.Unavailable(err)
	}
	if fund == nil {
		return strategy.Unavailable(fmt.Errorf("%w: no fundamentals for %s", ErrDataUnavailable, ticker))
	}

	returns, err := c.History.FetchDailyReturns(ctx, ticker, c.LookbackDays)
	if err != nil {
		c.metrics.RecordProviderError("history")
		c.log.Warnw("price history lookup failed", "ticker", ticker, "error", err)
		return strategy.Unavailable(err)
	}

	assessment := strategy.Classify(*fund, returns)
	c.log.Debugw("risk assessed",
		"ticker", ticker,
		"rating", assessment.Rating,
		"risk", assessment.RiskLevel,
		"allowed", assessment.Allowed,
	)
	return assessment
}
