package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EquiSmart/internal/batch"
	"EquiSmart/internal/metrics"
	"EquiSmart/internal/model"
	"EquiSmart/internal/notifier"
	"EquiSmart/internal/portfolio"
	"EquiSmart/internal/recorder"
	"EquiSmart/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled portfolio screens with Telegram reports and commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	log := a.log
	cfg := a.cfg
	if err := cfg.ValidateTelegram(); err != nil {
		return err
	}
	log.Info("EquiSmart starting...")

	s, err := parseStrategy(cfg.Batch.Strategy, cfg.Batch.ManualTarget)
	if err != nil {
		return err
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	col, err := a.newCollector(m)
	if err != nil {
		return err
	}
	orch := batch.NewOrchestrator(col, col, m, log)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	load := func() ([]model.Position, []portfolio.RowIssue, error) {
		return portfolio.LoadFile(cfg.Batch.PortfolioPath)
	}
	sched := scheduler.NewScheduler(ctx, orch, col, load, tn, rec, s, log)
	sched.OutputPath = cfg.Batch.OutputPath
	if err := sched.RegisterAll(cfg.Schedule.ScreenCron, cfg.Schedule.Timezone); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics server: %v", err)
			}
		}()
		log.Infof("metrics listening on %s", cfg.Metrics.Addr)
	}

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info("Telegram polling started")

	if cfg.Schedule.RunOnStart {
		log.Info("run_on_start enabled, executing screen now")
		go sched.RunScreenNow()
	}

	log.Info("EquiSmart is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}
	log.Info("EquiSmart stopped")
	return nil
}
