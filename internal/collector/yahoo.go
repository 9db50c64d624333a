package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"EquiSmart/internal/calculator"
	"EquiSmart/internal/model"

	"github.com/shopspring/decimal"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
	Suffix  string // exchange suffix appended to tickers, e.g. ".NS"
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL, suffix string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		BaseURL: yahooBaseURL,
		Suffix:  suffix,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooValue is the {"raw": 12.3, "fmt": "12.30"} shape used by quoteSummary.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE yahooValue `json:"trailingPE"`
				ForwardPE  yahooValue `json:"forwardPE"`
				MarketCap  yahooValue `json:"marketCap"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps yahooValue `json:"trailingEps"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				ReturnOnEquity yahooValue `json:"returnOnEquity"`
			} `json:"financialData"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(values []interface{}, i int) interface{} {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func (f *YahooFetcher) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, ticker, interval, rng string) (float64, []model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(providerSymbol(ticker, f.Suffix)), interval, rng)

	var chart yahooChart
	if err := f.get(ctx, u, &chart); err != nil {
		return 0, nil, err
	}
	if chart.Chart.Error != nil {
		return 0, nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return result.Meta.RegularMarketPrice, nil, nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		c := toFloat(at(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(at(quote.Volume, i)),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return result.Meta.RegularMarketPrice, bars, nil
}

// FetchPrice returns the regular market price, falling back to the latest intraday close.
func (f *YahooFetcher) FetchPrice(ctx context.Context, ticker string) (float64, error) {
	price, bars, err := f.fetchChart(ctx, ticker, "1m", "1d")
	if err != nil {
		return 0, err
	}
	if price > 0 {
		return price, nil
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("yahoo: no price data for %s", ticker)
	}
	return decimal.NewFromFloat(bars[len(bars)-1].Close).Round(2).InexactFloat64(), nil
}

func (f *YahooFetcher) FetchDailyReturns(ctx context.Context, ticker string, lookbackDays int) ([]float64, error) {
	rng := "2y"
	if lookbackDays <= 30 {
		rng = "1mo"
	} else if lookbackDays <= 90 {
		rng = "3mo"
	} else if lookbackDays <= 180 {
		rng = "6mo"
	} else if lookbackDays <= 365 {
		rng = "1y"
	}
	_, bars, err := f.fetchChart(ctx, ticker, "1d", rng)
	if err != nil {
		return nil, err
	}
	return calculator.DailyReturns(calculator.TrimToLookback(bars, lookbackDays)), nil
}

// FetchFundamentals reads P/E, ROE, EPS, market cap and profile from quoteSummary.
// ROE is converted from a fraction to a percentage rounded to 2 decimals.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, ticker string) (*model.Fundamentals, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,defaultKeyStatistics,financialData,assetProfile",
		f.BaseURL, url.PathEscape(providerSymbol(ticker, f.Suffix)))

	var summary yahooSummary
	if err := f.get(ctx, u, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no fundamentals returned")
	}
	r := summary.QuoteSummary.Result[0]

	fund := &model.Fundamentals{
		PERatio:   r.SummaryDetail.TrailingPE.Raw,
		EPS:       r.DefaultKeyStatistics.TrailingEps.Raw,
		MarketCap: r.SummaryDetail.MarketCap.Raw,
		Sector:    r.AssetProfile.Sector,
		Industry:  r.AssetProfile.Industry,
	}
	if fund.PERatio == nil {
		fund.PERatio = r.SummaryDetail.ForwardPE.Raw
	}
	if roe := r.FinancialData.ReturnOnEquity.Raw; roe != nil {
		pct := decimal.NewFromFloat(*roe).Mul(decimal.NewFromInt(100)).RoundBank(2).InexactFloat64()
		fund.ReturnOnEquity = &pct
	}
	return fund, nil
}
