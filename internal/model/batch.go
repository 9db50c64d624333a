package model

import (
	"time"

	"github.com/google/uuid"
)

// Remark tags which bucket a batch row belongs to.
type Remark string

const (
	RemarkProfitable     Remark = "Profitable"
	RemarkNeedsAveraging Remark = "Needs Averaging"
)

// BatchResultRow is one processed position. Nil pointers render as "N/A".
type BatchResultRow struct {
	Position
	TargetPrice *float64
	SharesToBuy *int64
	NewAverage  *float64
	Profit      *float64
	Risk        RiskAssessment
	Remark      Remark
}

// BatchSummary counts emitted rows per remark.
type BatchSummary struct {
	Total          int
	Profitable     int
	NeedsAveraging int
}

// Summarize folds rows into a BatchSummary.
func Summarize(rows []BatchResultRow) BatchSummary {
	var s BatchSummary
	for _, r := range rows {
		switch r.Remark {
		case RemarkProfitable:
			s.Profitable++
		case RemarkNeedsAveraging:
			s.NeedsAveraging++
		default:
			continue
		}
		s.Total++
	}
	return s
}

// BatchReport is the output of one orchestrator pass.
type BatchReport struct {
	RunID      uuid.UUID
	Strategy   Strategy
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []BatchResultRow
	Summary    BatchSummary
	Skipped    int
}
