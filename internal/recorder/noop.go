package recorder

import "EquiSmart/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBatch(_ *model.BatchReport) error { return nil }
func (n *NoopRecorder) LastRun() (*RunSummary, error)          { return nil, ErrNoRuns }
func (n *NoopRecorder) Close() error                           { return nil }
