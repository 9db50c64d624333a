package main

import (
	"fmt"

	"EquiSmart/internal/collector"
	"EquiSmart/internal/metrics"
	"EquiSmart/internal/model"
	"EquiSmart/internal/strategy"
)

// newCollector wires quotes and history from the configured provider and
// fundamentals from Yahoo quoteSummary. Quotes fall back to a second provider
// unless quote_fallback is none or names the primary.
func (a *app) newCollector(m *metrics.Recorder) (*collector.Collector, error) {
	ds := a.cfg.DataSource
	yahoo := collector.NewYahooFetcher(a.cfg.Proxy, ds.SymbolSuffix, ds.Timeout)

	primary, err := a.provider(ds.Provider, yahoo)
	if err != nil {
		return nil, err
	}
	var quotes collector.QuoteSource = primary
	quoteNames := ds.Provider
	if ds.QuoteFallback != "" && ds.QuoteFallback != "none" && ds.QuoteFallback != ds.Provider {
		secondary, err := a.provider(ds.QuoteFallback, yahoo)
		if err != nil {
			return nil, err
		}
		quotes = collector.NewFallbackQuotes(primary, secondary, a.log)
		quoteNames += "," + ds.QuoteFallback
	}
	a.log.Infof("data source: quotes=%s history=%s fundamentals=%s", quoteNames, ds.Provider, yahoo.Name())
	return collector.NewCollector(quotes, yahoo, primary, ds.LookbackDays, a.log, m), nil
}

type quoteHistory interface {
	collector.QuoteSource
	collector.PriceHistoryProvider
}

func (a *app) provider(name string, yahoo *collector.YahooFetcher) (quoteHistory, error) {
	switch name {
	case "yahoo":
		return yahoo, nil
	case "financego":
		return collector.NewFinanceGoFetcher(a.cfg.DataSource.SymbolSuffix), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", name)
	}
}

// parseStrategy builds a Strategy from a name and a manual target.
func parseStrategy(name string, target float64) (model.Strategy, error) {
	kind, err := strategy.ParseKind(name)
	if err != nil {
		return model.Strategy{}, err
	}
	s := model.Strategy{Kind: kind}
	if kind == model.StrategyManual {
		if !(target > 0) {
			return model.Strategy{}, fmt.Errorf("manual strategy needs --target greater than 0")
		}
		s.ManualTarget = target
	}
	return s, nil
}
