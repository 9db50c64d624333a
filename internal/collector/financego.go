package collector

import (
	"context"
	"fmt"
	"time"

	"EquiSmart/internal/calculator"
	"EquiSmart/internal/model"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
)

// FinanceGoFetcher implements QuoteSource and PriceHistoryProvider on top of finance-go.
// It has no fundamentals endpoint; pair it with YahooFetcher for those.
type FinanceGoFetcher struct {
	Suffix string
	now    func() time.Time
}

func NewFinanceGoFetcher(suffix string) *FinanceGoFetcher {
	return &FinanceGoFetcher{Suffix: suffix, now: time.Now}
}

func (f *FinanceGoFetcher) Name() string { return "finance-go" }

func (f *FinanceGoFetcher) FetchPrice(ctx context.Context, ticker string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	symbol := providerSymbol(ticker, f.Suffix)
	q, err := equity.Get(symbol)
	if err != nil {
		return 0, fmt.Errorf("finance-go equity %s: %w", symbol, err)
	}
	if q == nil {
		return 0, fmt.Errorf("finance-go equity %s: no data", symbol)
	}
	return q.RegularMarketPrice, nil
}

func (f *FinanceGoFetcher) FetchDailyReturns(ctx context.Context, ticker string, lookbackDays int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol := providerSymbol(ticker, f.Suffix)
	end := f.now()
	start := end.AddDate(0, 0, -lookbackDays)
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	bars := []model.OHLCV{}
	for iter.Next() {
		bar := iter.Bar()
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(int64(bar.Timestamp), 0),
			Open:   bar.Open.InexactFloat64(),
			High:   bar.High.InexactFloat64(),
			Low:    bar.Low.InexactFloat64(),
			Close:  bar.Close.InexactFloat64(),
			Volume: float64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}
	return calculator.DailyReturns(bars), nil
}
