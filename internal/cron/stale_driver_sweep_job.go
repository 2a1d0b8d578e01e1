package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/feastline/dispatch-backend/pkg/logger"
)

const defaultHeartbeatTTL = 90 * time.Second

// StaleDriverSweepJobParams configures the missed-heartbeat sweep.
type StaleDriverSweepJobParams struct {
	Logger    *logger.Logger
	Drivers   staleDriverSweeper
	TTL       time.Duration
	BatchSize int
}

type staleDriverSweeper interface {
	SweepStale(ctx context.Context, lastSeenBefore time.Time, limit int) (int, error)
}

// NewStaleDriverSweepJob builds the job that forces drivers offline
// once their last heartbeat is older than the TTL.
func NewStaleDriverSweepJob(params StaleDriverSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Drivers == nil {
		return nil, fmt.Errorf("drivers service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultHeartbeatTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	return &staleDriverSweepJob{
		logg:    params.Logger,
		drivers: params.Drivers,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type staleDriverSweepJob struct {
	logg    *logger.Logger
	drivers staleDriverSweeper
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *staleDriverSweepJob) Name() string { return "stale-driver-sweep" }

func (j *staleDriverSweepJob) Run(ctx context.Context) error {
	lastSeenBefore := j.now().UTC().Add(-j.ttl)
	swept, err := j.drivers.SweepStale(ctx, lastSeenBefore, j.batch)
	if err != nil {
		return fmt.Errorf("sweep stale drivers: %w", err)
	}
	if swept == 0 {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"swept": swept})
	j.logg.Info(logCtx, "stale drivers forced offline")
	return nil
}
