package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"EquiSmart/internal/calculator"
	"EquiSmart/internal/metrics"
	"EquiSmart/internal/model"
	"EquiSmart/internal/strategy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Skip reasons, used as metric labels and log fields.
const (
	SkipZeroQuantity = "zero_quantity"
	SkipNoPrice      = "no_price"
	SkipInvalid      = "invalid"
)

// PriceSource quotes the current market price of a ticker.
type PriceSource interface {
	Price(ctx context.Context, ticker string) (float64, error)
}

// RiskAssessor classifies a ticker. It never fails; faults degrade the verdict.
type RiskAssessor interface {
	Assess(ctx context.Context, ticker string) model.RiskAssessment
}

// Orchestrator applies strategy resolution, the averaging solver and the risk
// classifier to every position of a portfolio.
type Orchestrator struct {
	prices  PriceSource
	risk    RiskAssessor
	metrics *metrics.Recorder
	log     *zap.SugaredLogger
	now     func() time.Time
}

// NewOrchestrator creates an Orchestrator. metrics and log may be nil.
func NewOrchestrator(prices PriceSource, risk RiskAssessor, m *metrics.Recorder, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{prices: prices, risk: risk, metrics: m, log: log, now: time.Now}
}

// Run processes positions in order. Rows with zero quantity or no usable market price
// are skipped and counted in BatchReport.Skipped.
// It only fails for a manual strategy without a positive target or a cancelled context.
func (o *Orchestrator) Run(ctx context.Context, positions []model.Position, s model.Strategy) (*model.BatchReport, error) {
	if s.Kind == model.StrategyManual && !(s.ManualTarget > 0) {
		return nil, &calculator.ValidationError{Field: "target_average_price", Message: "Manual strategy needs a target greater than 0."}
	}

	report := &model.BatchReport{
		RunID:     uuid.New(),
		Strategy:  s,
		StartedAt: o.now(),
		Rows:      make([]model.BatchResultRow, 0, len(positions)),
	}
	log := o.log.With("run_id", report.RunID.String(), "strategy", s.Kind)
	log.Infof("batch run started: %d positions", len(positions))

	for _, pos := range positions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch run %s: %w", report.RunID, err)
		}

		row, reason := o.processRow(ctx, log, pos, s)
		if reason != "" {
			report.Skipped++
			o.metrics.RecordSkip(reason)
			log.Warnw("row skipped", "ticker", pos.Ticker, "reason", reason)
			continue
		}
		o.metrics.RecordRow(string(row.Remark))
		report.Rows = append(report.Rows, row)
	}

	report.Summary = model.Summarize(report.Rows)
	report.FinishedAt = o.now()
	o.metrics.RecordRun(string(s.Kind), report.FinishedAt.Sub(report.StartedAt),
		report.Summary.Total, report.Summary.Profitable, report.Summary.NeedsAveraging, report.Skipped)
	log.Infof("batch run finished: total=%d profitable=%d needs_averaging=%d skipped=%d",
		report.Summary.Total, report.Summary.Profitable, report.Summary.NeedsAveraging, report.Skipped)
	return report, nil
}

// processRow returns the result row, or a non-empty skip reason.
func (o *Orchestrator) processRow(ctx context.Context, log *zap.SugaredLogger, pos model.Position, s model.Strategy) (model.BatchResultRow, string) {
	switch {
	case pos.Quantity == 0:
		return model.BatchResultRow{}, SkipZeroQuantity
	case pos.Quantity < 0 || pos.AveragePrice < 0 || pos.MarketPrice < 0:
		return model.BatchResultRow{}, SkipInvalid
	case !finite(pos.AveragePrice) || !finite(pos.MarketPrice):
		return model.BatchResultRow{}, SkipInvalid
	}

	if pos.MarketPrice == 0 {
		p, err := o.prices.Price(ctx, pos.Ticker)
		if err != nil {
			log.Warnw("market price unavailable", "ticker", pos.Ticker, "error", err)
			return model.BatchResultRow{}, SkipNoPrice
		}
		if !finite(p) || p <= 0 {
			log.Warnw("market price unusable", "ticker", pos.Ticker, "price", p)
			return model.BatchResultRow{}, SkipNoPrice
		}
		pos.MarketPrice = p
	}

	row := model.BatchResultRow{Position: pos}
	avg := decimal.NewFromFloat(pos.AveragePrice)
	market := decimal.NewFromFloat(pos.MarketPrice)

	if market.GreaterThanOrEqual(avg) {
		profit := market.Sub(avg).Mul(decimal.NewFromInt(pos.Quantity)).InexactFloat64()
		row.Profit = &profit
		row.Remark = model.RemarkProfitable
	} else {
		target := strategy.Resolve(s, pos.AveragePrice, pos.MarketPrice)
		row.TargetPrice = &target
		row.Remark = model.RemarkNeedsAveraging

		res, err := calculator.Solve(pos.Quantity, pos.AveragePrice, pos.MarketPrice, target)
		var verr *calculator.ValidationError
		switch {
		case errors.As(err, &verr):
			log.Warnw("solver rejected row", "ticker", pos.Ticker, "error", verr)
		case err != nil:
			log.Errorw("solver failed", "ticker", pos.Ticker, "error", err)
		case res.Feasible:
			row.SharesToBuy = &res.SharesToBuy
			row.NewAverage = &res.NewAverage
			row.Profit = &res.ProjectedProfit
		}
	}

	row.Risk = o.risk.Assess(ctx, pos.Ticker)
	return row, ""
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
