package recorder

import (
	"errors"
	"time"

	"EquiSmart/internal/model"
)

// ErrNoRuns is returned by LastRun before any batch run was recorded.
var ErrNoRuns = errors.New("no batch runs recorded")

// StoredRow is the persisted subset of a batch result row.
type StoredRow struct {
	Ticker      string
	Quantity    int64
	AvgPrice    float64
	MarketPrice float64
	TargetPrice *float64
	SharesToBuy *int64
	NewAverage  *float64
	Profit      *float64
	Rating      model.Rating
	RiskLevel   model.RiskLevel
	Volatility  *float64
	Allowed     bool
	Remark      model.Remark
}

// RunSummary is a recorded batch run.
type RunSummary struct {
	RunID      string
	Strategy   model.Strategy
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    model.BatchSummary
	Skipped    int
	Rows       []StoredRow
}

// Recorder keeps an audit log of batch runs. It is never read back as portfolio state.
type Recorder interface {
	RecordBatch(report *model.BatchReport) error
	LastRun() (*RunSummary, error)
	Close() error
}
