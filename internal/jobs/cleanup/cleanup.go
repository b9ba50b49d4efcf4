// Package cleanup reaps browsing sessions whose owners walked away.
// Session draw state lives in memory, so abandoned sessions cost RAM
// until something closes them.
package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSessionTTL    = 2 * time.Hour
	defaultSweepInterval = 10 * time.Minute
)

type SessionSweeper interface {
	SweepIdle(ttl time.Duration) int
}

type Job struct {
	sweeper  SessionSweeper
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
}

func NewSessionCleanupJob(sweeper SessionSweeper, ttl, interval time.Duration, logger *zap.Logger) *Job {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		sweeper:  sweeper,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
	}
}

func (j *Job) Run(_ context.Context) error {
	if j.sweeper == nil {
		return nil
	}

	reaped := j.sweeper.SweepIdle(j.ttl)
	if reaped > 0 {
		j.logger.Info("idle session sweep completed", zap.Int("reaped", reaped))
	}
	return nil
}

// RunLoop sweeps on the configured interval until the context is done.
func (j *Job) RunLoop(ctx context.Context) error {
	if j.sweeper == nil {
		return nil
	}

	if err := j.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				return err
			}
		}
	}
}
