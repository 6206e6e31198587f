package repo

import (
	"context"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

// ResultStore keeps what the status API reports: the latest result per
// host and check type, plus loop counters. Nothing is persisted.
type ResultStore interface {
	Append(ctx context.Context, r domain.CheckResult) error
	Latest(ctx context.Context) ([]domain.CheckResult, error)
	RecordCycle(ctx context.Context, c CycleStats) error
	Stats(ctx context.Context) (CycleStats, error)
}

// CycleStats describes the last completed scheduler cycle.
type CycleStats struct {
	Cycles   int64 `json:"cycles"`
	OKStreak int   `json:"ok_streak"`
	Bad      int   `json:"bad"`
	Failed   int   `json:"failed"`
}
