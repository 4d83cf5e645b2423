package storage

import (
	"context"

	"tiller/internal/model"
)

// Store persists run summaries and per-tick traces captured by the host
// harness. Recording happens outside the block's real-time Step path.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveTicks(ctx context.Context, runID string, ticks []model.TickRecord) error
	GetTicks(ctx context.Context, runID string) ([]model.TickRecord, bool, error)
}
