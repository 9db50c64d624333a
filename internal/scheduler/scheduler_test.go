package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"EquiSmart/internal/model"
	"EquiSmart/internal/portfolio"
	"EquiSmart/internal/recorder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeBatch struct {
	got []model.Strategy
	err error
}

func (f *fakeBatch) Run(_ context.Context, positions []model.Position, s model.Strategy) (*model.BatchReport, error) {
	f.got = append(f.got, s)
	if f.err != nil {
		return nil, f.err
	}
	rows := make([]model.BatchResultRow, 0, len(positions))
	for _, p := range positions {
		profit := 1.0
		rows = append(rows, model.BatchResultRow{Position: p, Profit: &profit, Remark: model.RemarkProfitable})
	}
	return &model.BatchReport{
		RunID:     uuid.New(),
		Strategy:  s,
		StartedAt: time.Now(),
		Rows:      rows,
		Summary:   model.Summarize(rows),
	}, nil
}

type fakeRisk struct{}

func (fakeRisk) Assess(_ context.Context, ticker string) model.RiskAssessment {
	return model.RiskAssessment{Rating: model.RatingGood, RiskLevel: model.RiskLow, Allowed: true}
}

type fakeRecorder struct {
	recorder.NoopRecorder
	runs []*model.BatchReport
}

func (f *fakeRecorder) RecordBatch(r *model.BatchReport) error {
	f.runs = append(f.runs, r)
	return nil
}

func staticLoader(positions ...model.Position) PortfolioLoader {
	return func() ([]model.Position, []portfolio.RowIssue, error) {
		return positions, []portfolio.RowIssue{{Line: 3, Stock: "BAD", Reason: "Current Quantity: value is missing"}}, nil
	}
}

func newTestScheduler(batch *fakeBatch, load PortfolioLoader) (*Scheduler, *fakeSender, *fakeRecorder) {
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	s := NewScheduler(context.Background(), batch, fakeRisk{}, load, sender, rec,
		model.Strategy{Kind: model.StrategyMean}, nil)
	return s, sender, rec
}

func TestScreenTask(t *testing.T) {
	batch := &fakeBatch{}
	s, sender, rec := newTestScheduler(batch, staticLoader(model.Position{Ticker: "TCS", Quantity: 1, AveragePrice: 1, MarketPrice: 2}))
	s.OutputPath = filepath.Join(t.TempDir(), "results.csv")

	s.RunScreenNow()

	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0], "Total: 1 | Profitable: 1 | Needs averaging: 0")
	require.Len(t, rec.runs, 1)
	require.Equal(t, []model.Strategy{{Kind: model.StrategyMean}}, batch.got)

	data, err := os.ReadFile(s.OutputPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "Stock,Current Quantity"))
}

func TestScreenTask_Failures(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		load := func() ([]model.Position, []portfolio.RowIssue, error) {
			return nil, nil, &portfolio.MalformedInputError{Missing: []string{portfolio.ColumnQuantity}}
		}
		s, sender, rec := newTestScheduler(&fakeBatch{}, load)
		s.RunScreenNow()
		require.Len(t, sender.sent, 1)
		require.Contains(t, sender.sent[0], "missing required columns: Current Quantity")
		require.Empty(t, rec.runs)
	})

	t.Run("batch", func(t *testing.T) {
		s, sender, _ := newTestScheduler(&fakeBatch{err: errors.New("boom")}, staticLoader())
		s.RunScreenNow()
		require.Contains(t, sender.sent[0], "❌ Portfolio screen failed")
	})
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("help", func(t *testing.T) {
		s, _, _ := newTestScheduler(&fakeBatch{}, staticLoader())
		require.Contains(t, s.HandleCommand(ctx, "hello"), "/screen")
		require.Contains(t, s.HandleCommand(ctx, "   "), "/risk TICKER")
	})

	t.Run("last without runs", func(t *testing.T) {
		s, _, _ := newTestScheduler(&fakeBatch{}, staticLoader())
		require.Equal(t, "No screen has been recorded yet.", s.HandleCommand(ctx, "/last"))
	})

	t.Run("risk", func(t *testing.T) {
		s, _, _ := newTestScheduler(&fakeBatch{}, staticLoader())
		require.Contains(t, s.HandleCommand(ctx, "/risk infy"), "Risk analyzer: INFY")
		require.Equal(t, "Usage: /risk TICKER", s.HandleCommand(ctx, "/risk"))
	})

	t.Run("screen sends report itself", func(t *testing.T) {
		s, sender, _ := newTestScheduler(&fakeBatch{}, staticLoader())
		require.Empty(t, s.HandleCommand(ctx, "/screen"))
		require.Len(t, sender.sent, 1)
	})

	t.Run("strategy", func(t *testing.T) {
		batch := &fakeBatch{}
		s, _, _ := newTestScheduler(batch, staticLoader())

		require.Contains(t, s.HandleCommand(ctx, "/strategy"), "Mean of current average")
		require.Contains(t, s.HandleCommand(ctx, "/strategy aggressive"), "5% above market")
		require.Equal(t, model.Strategy{Kind: model.StrategyAboveMarket}, s.Strategy())

		require.Equal(t, "Usage: /strategy manual TARGET", s.HandleCommand(ctx, "/strategy manual"))
		require.Contains(t, s.HandleCommand(ctx, "/strategy manual -4"), "greater than 0")
		require.Contains(t, s.HandleCommand(ctx, "/strategy manual 95.5"), "✅")
		require.Equal(t, model.Strategy{Kind: model.StrategyManual, ManualTarget: 95.5}, s.Strategy())

		require.Contains(t, s.HandleCommand(ctx, "/strategy yolo"), "unknown strategy")

		s.RunScreenNow()
		require.Equal(t, model.StrategyManual, batch.got[0].Kind)
	})
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(&fakeBatch{}, staticLoader())
	require.NoError(t, s.RegisterAll("0 45 15 * * 1-5", "Asia/Kolkata"))
	require.Len(t, s.Cron.Entries(), 1)
	require.Error(t, s.RegisterAll("not a cron", ""))
}
