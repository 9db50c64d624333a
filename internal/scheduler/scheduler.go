package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"EquiSmart/internal/model"
	"EquiSmart/internal/notifier"
	"EquiSmart/internal/portfolio"
	"EquiSmart/internal/recorder"
	"EquiSmart/internal/strategy"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// BatchRunner runs the averaging screen over a set of positions.
type BatchRunner interface {
	Run(ctx context.Context, positions []model.Position, s model.Strategy) (*model.BatchReport, error)
}

// RiskAssessor classifies a single ticker.
type RiskAssessor interface {
	Assess(ctx context.Context, ticker string) model.RiskAssessment
}

// PortfolioLoader reads the positions to screen.
type PortfolioLoader func() ([]model.Position, []portfolio.RowIssue, error)

// Scheduler manages the screening cron task and Telegram commands.
type Scheduler struct {
	Cron     *cron.Cron
	Batch    BatchRunner
	Risk     RiskAssessor
	Load     PortfolioLoader
	Notifier Sender
	Recorder recorder.Recorder
	Ctx      context.Context
	// OutputPath, when set, receives the CSV export of every run.
	OutputPath string

	log      *zap.SugaredLogger
	runMu    sync.Mutex
	stratMu  sync.RWMutex
	strategy model.Strategy
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, batch BatchRunner, risk RiskAssessor, load PortfolioLoader,
	sender Sender, rec recorder.Recorder, initial model.Strategy, log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Batch:    batch,
		Risk:     risk,
		Load:     load,
		Notifier: sender,
		Recorder: rec,
		Ctx:      ctx,
		log:      log,
		strategy: initial,
	}
}

// RegisterAll registers the screening task. A non-empty timezone pins the schedule
// to that location, e.g. "Asia/Kolkata" for NSE market hours.
func (s *Scheduler) RegisterAll(screenCron, timezone string) error {
	spec := screenCron
	if timezone != "" {
		spec = fmt.Sprintf("CRON_TZ=%s %s", timezone, screenCron)
	}
	if _, err := s.Cron.AddFunc(spec, s.screenTask); err != nil {
		return fmt.Errorf("register screen task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Strategy returns the strategy used by scheduled runs.
func (s *Scheduler) Strategy() model.Strategy {
	s.stratMu.RLock()
	defer s.stratMu.RUnlock()
	return s.strategy
}

// SetStrategy changes the strategy used by later runs.
func (s *Scheduler) SetStrategy(st model.Strategy) {
	s.stratMu.Lock()
	defer s.stratMu.Unlock()
	s.strategy = st
}

// RunScreenNow executes the screening task immediately.
func (s *Scheduler) RunScreenNow() {
	s.screenTask()
}

func (s *Scheduler) screenTask() {
	if !s.runMu.TryLock() {
		s.log.Warn("screen already running, skipping")
		return
	}
	defer s.runMu.Unlock()

	s.log.Info("running portfolio screen")
	report, err := s.screen(s.Ctx)
	if err != nil {
		s.log.Errorf("screen: %v", err)
		s.trySend(fmt.Sprintf("❌ Portfolio screen failed: %v", err))
		return
	}
	s.trySend(notifier.FormatBatchReport(report))
}

func (s *Scheduler) screen(ctx context.Context) (*model.BatchReport, error) {
	positions, issues, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	for _, issue := range issues {
		s.log.Warnf("portfolio row dropped: %s", issue)
	}

	report, err := s.Batch.Run(ctx, positions, s.Strategy())
	if err != nil {
		return nil, fmt.Errorf("run batch: %w", err)
	}

	if err := s.Recorder.RecordBatch(report); err != nil {
		s.log.Errorf("record batch: %v", err)
	}
	if s.OutputPath != "" {
		if err := portfolio.ExportFile(s.OutputPath, report.Rows); err != nil {
			s.log.Errorf("export batch: %v", err)
		}
	}
	return report, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "/screen":
		s.screenTask()
		return ""
	case "/last":
		run, err := s.Recorder.LastRun()
		if errors.Is(err, recorder.ErrNoRuns) {
			return "No screen has been recorded yet."
		}
		if err != nil {
			s.log.Errorf("load last run: %v", err)
			return fmt.Sprintf("❌ Could not load last run: %v", err)
		}
		return notifier.FormatLastRun(run)
	case "/risk":
		if len(args) != 1 {
			return "Usage: /risk TICKER"
		}
		return notifier.FormatRiskReport(args[0], s.Risk.Assess(ctx, args[0]))
	case "/strategy":
		return s.handleStrategy(args)
	default:
		return helpText
	}
}

func (s *Scheduler) handleStrategy(args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Current strategy: %s", strategy.Describe(s.Strategy().Kind))
	}
	kind, err := strategy.ParseKind(args[0])
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	st := model.Strategy{Kind: kind}
	if kind == model.StrategyManual {
		if len(args) != 2 {
			return "Usage: /strategy manual TARGET"
		}
		var target float64
		if _, err := fmt.Sscanf(args[1], "%g", &target); err != nil || !(target > 0) {
			return "❌ Target average must be a number greater than 0."
		}
		st.ManualTarget = target
	}
	s.SetStrategy(st)
	return fmt.Sprintf("✅ Strategy set: %s", strategy.Describe(kind))
}

const helpText = "Available commands:\n" +
	"• /screen: run the portfolio screen now\n" +
	"• /last: summary of the last screen\n" +
	"• /risk TICKER: fundamentals and volatility check\n" +
	"• /strategy [mean|below-avg|above-market|manual TARGET]: show or change the strategy"

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Errorf("send notification: %v", err)
	}
}
