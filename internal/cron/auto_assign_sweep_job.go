package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/feastline/dispatch-backend/pkg/logger"
)

const (
	defaultSweepStaleAge  = 30 * time.Second
	defaultSweepBatchSize = 50
)

// AutoAssignSweepJobParams configures the unmatched-assignment sweep.
type AutoAssignSweepJobParams struct {
	Logger    *logger.Logger
	Dispatch  autoAssignSweeper
	StaleAge  time.Duration
	BatchSize int
}

type autoAssignSweeper interface {
	SweepUnmatched(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// NewAutoAssignSweepJob builds the job that retries matching for
// assignments still available after the stale age.
func NewAutoAssignSweepJob(params AutoAssignSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatch == nil {
		return nil, fmt.Errorf("dispatch service required")
	}
	staleAge := params.StaleAge
	if staleAge <= 0 {
		staleAge = defaultSweepStaleAge
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	return &autoAssignSweepJob{
		logg:     params.Logger,
		dispatch: params.Dispatch,
		staleAge: staleAge,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type autoAssignSweepJob struct {
	logg     *logger.Logger
	dispatch autoAssignSweeper
	staleAge time.Duration
	batch    int
	now      func() time.Time
}

func (j *autoAssignSweepJob) Name() string { return "auto-assign-sweep" }

func (j *autoAssignSweepJob) Run(ctx context.Context) error {
	olderThan := j.now().UTC().Add(-j.staleAge)
	matched, err := j.dispatch.SweepUnmatched(ctx, olderThan, j.batch)
	if err != nil {
		return fmt.Errorf("sweep unmatched assignments: %w", err)
	}
	if matched == 0 {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"matched": matched})
	j.logg.Info(logCtx, "auto-assign sweep matched stale assignments")
	return nil
}
