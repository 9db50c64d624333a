package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"EquiSmart/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists batch runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.SugaredLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.SugaredLogger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so reports can be read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batch_runs (
			run_id          TEXT PRIMARY KEY,
			strategy        TEXT NOT NULL,
			manual_target   REAL,
			started_at      INTEGER NOT NULL,
			finished_at     INTEGER NOT NULL,
			total           INTEGER NOT NULL,
			profitable      INTEGER NOT NULL,
			needs_averaging INTEGER NOT NULL,
			skipped         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON batch_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS batch_rows (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL REFERENCES batch_runs(run_id),
			position      INTEGER NOT NULL,
			ticker        TEXT NOT NULL,
			quantity      INTEGER,
			avg_price     REAL,
			market_price  REAL,
			target_price  REAL,
			shares_to_buy INTEGER,
			new_average   REAL,
			profit        REAL,
			rating        TEXT,
			risk_level    TEXT,
			volatility    REAL,
			allowed       INTEGER,
			remark        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_run ON batch_rows(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordBatch stores the run and all of its rows in one transaction.
func (r *SQLiteRecorder) RecordBatch(report *model.BatchReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var manual sql.NullFloat64
	if report.Strategy.Kind == model.StrategyManual {
		manual = sql.NullFloat64{Float64: report.Strategy.ManualTarget, Valid: true}
	}
	_, err = tx.Exec(`INSERT INTO batch_runs
		(run_id, strategy, manual_target, started_at, finished_at, total, profitable, needs_averaging, skipped)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		report.RunID.String(), string(report.Strategy.Kind), manual,
		report.StartedAt.UnixMilli(), report.FinishedAt.UnixMilli(),
		report.Summary.Total, report.Summary.Profitable, report.Summary.NeedsAveraging, report.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO batch_rows
		(run_id, position, ticker, quantity, avg_price, market_price, target_price, shares_to_buy,
		 new_average, profit, rating, risk_level, volatility, allowed, remark)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for i, row := range report.Rows {
		_, err := stmt.Exec(
			report.RunID.String(), i, row.Ticker, row.Quantity, row.AveragePrice, row.MarketPrice,
			nullFloat(row.TargetPrice), nullInt(row.SharesToBuy), nullFloat(row.NewAverage), nullFloat(row.Profit),
			string(row.Risk.Rating), string(row.Risk.RiskLevel), nullFloat(row.Risk.Volatility),
			row.Risk.Allowed, string(row.Remark),
		)
		if err != nil {
			return fmt.Errorf("insert row %s: %w", row.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debugw("batch run recorded", "run_id", report.RunID.String(), "rows", len(report.Rows))
	return nil
}

// LastRun loads the most recently started run with its rows.
func (r *SQLiteRecorder) LastRun() (*RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		run               RunSummary
		kind              string
		manual            sql.NullFloat64
		started, finished int64
	)
	err := r.db.QueryRow(`SELECT run_id, strategy, manual_target, started_at, finished_at,
		total, profitable, needs_averaging, skipped
		FROM batch_runs ORDER BY started_at DESC LIMIT 1`).Scan(
		&run.RunID, &kind, &manual, &started, &finished,
		&run.Summary.Total, &run.Summary.Profitable, &run.Summary.NeedsAveraging, &run.Skipped,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	run.Strategy = model.Strategy{Kind: model.StrategyKind(kind), ManualTarget: manual.Float64}
	run.StartedAt = time.UnixMilli(started)
	run.FinishedAt = time.UnixMilli(finished)

	rows, err := r.db.Query(`SELECT ticker, quantity, avg_price, market_price, target_price, shares_to_buy,
		new_average, profit, rating, risk_level, volatility, allowed, remark
		FROM batch_rows WHERE run_id = ? ORDER BY position`, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sr                          StoredRow
			target, newAvg, profit, vol sql.NullFloat64
			shares                      sql.NullInt64
			rating, risk, remark        string
		)
		if err := rows.Scan(&sr.Ticker, &sr.Quantity, &sr.AvgPrice, &sr.MarketPrice, &target, &shares,
			&newAvg, &profit, &rating, &risk, &vol, &sr.Allowed, &remark); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sr.TargetPrice = floatPtr(target)
		sr.SharesToBuy = intPtr(shares)
		sr.NewAverage = floatPtr(newAvg)
		sr.Profit = floatPtr(profit)
		sr.Volatility = floatPtr(vol)
		sr.Rating = model.Rating(rating)
		sr.RiskLevel = model.RiskLevel(risk)
		sr.Remark = model.Remark(remark)
		run.Rows = append(run.Rows, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return &run, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
