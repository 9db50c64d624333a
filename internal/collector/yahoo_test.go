package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("", ".NS", 5*time.Second)
	f.BaseURL = srv.URL
	return f
}

func TestYahooFetcher_FetchPrice(t *testing.T) {
	t.Run("regular market price", func(t *testing.T) {
		f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v8/finance/chart/TCS.NS", r.URL.Path)
			w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":3512.5},"timestamp":[],"indicators":{"quote":[{}]}}]}}`))
		})
		p, err := f.FetchPrice(context.Background(), "tcs")
		require.NoError(t, err)
		require.Equal(t, 3512.5, p)
	})

	t.Run("falls back to last close", func(t *testing.T) {
		f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"chart":{"result":[{"meta":{},"timestamp":[1700000000,1700000060],
				"indicators":{"quote":[{"open":[1,2],"high":[1,2],"low":[1,2],"close":[101.234,102.456],"volume":[5,5]}]}}]}}`))
		})
		p, err := f.FetchPrice(context.Background(), "INFY")
		require.NoError(t, err)
		require.Equal(t, 102.46, p)
	})

	t.Run("api error", func(t *testing.T) {
		f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		})
		_, err := f.FetchPrice(context.Background(), "XXXX")
		require.ErrorContains(t, err, "delisted")
	})

	t.Run("http status", func(t *testing.T) {
		f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := f.FetchPrice(context.Background(), "TCS")
		require.ErrorContains(t, err, "status 429")
	})
}

func TestYahooFetcher_FetchDailyReturns(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		require.Equal(t, "1y", r.URL.Query().Get("range"))
		// the null bar is a holiday and is dropped
		w.Write([]byte(`{"chart":{"result":[{"meta":{},"timestamp":[1700000000,1700086400,1700172800,1700259200],
			"indicators":{"quote":[{"open":[100,null,110,99],"high":[100,null,110,99],"low":[100,null,110,99],"close":[100,null,110,99],"volume":[1,null,1,1]}]}}]}}`))
	})
	returns, err := f.FetchDailyReturns(context.Background(), "TCS", 365)
	require.NoError(t, err)
	require.Len(t, returns, 2)
	require.InDelta(t, 0.10, returns[0], 1e-9)
	require.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestYahooFetcher_FetchFundamentals(t *testing.T) {
	t.Run("full summary", func(t *testing.T) {
		f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
			require.True(t, strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/TCS.NS"))
			w.Write([]byte(`{"quoteSummary":{"result":[{
				"summaryDetail":{"trailingPE":{"raw":28.4},"forwardPE":{"raw":25.1},"marketCap":{"raw":12500000000000}},
				"defaultKeyStatistics":{"trailingEps":{"raw":125.3}},
				"financialData":{"returnOnEquity":{"raw":0.48123}},
				"assetProfile":{"sector":"Technology","industry":"Information Technology Services"}}]}}`))
		})
		fund, err := f.FetchFundamentals(context.Background(), "TCS")
		require.NoError(t, err)
		require.Equal(t, 28.4, *fund.PERatio)
		require.Equal(t, 48.12, *fund.ReturnOnEquity)
		require.Equal(t, 125.3, *fund.EPS)
		require.Equal(t, 1.25e13, *fund.MarketCap)
		require.Equal(t, "Technology", fund.Sector)
	})

	t.Run("forward pe fallback and missing values", func(t *testing.T) {
		f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteSummary":{"result":[{"summaryDetail":{"trailingPE":{},"forwardPE":{"raw":19}},
				"defaultKeyStatistics":{},"financialData":{},"assetProfile":{}}]}}`))
		})
		fund, err := f.FetchFundamentals(context.Background(), "SBIN")
		require.NoError(t, err)
		require.Equal(t, 19.0, *fund.PERatio)
		require.Nil(t, fund.ReturnOnEquity)
		require.Nil(t, fund.EPS)
		require.Nil(t, fund.MarketCap)
	})
}
