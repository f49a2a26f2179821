package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunLocalSweeps runs the sweeps on in-process tickers until ctx ends. It
// stands in for the scheduler when no queue is configured, so pending holds
// still expire.
func RunLocalSweeps(ctx context.Context, sweeper Sweeper, expireEvery, completeEvery time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	expire := time.NewTicker(expireEvery)
	complete := time.NewTicker(completeEvery)
	defer expire.Stop()
	defer complete.Stop()

	run := func(name string, sweep func(context.Context) (int, error)) {
		n, err := sweep(ctx)
		if err != nil {
			logger.Error("sweep failed", zap.String("sweep", name), zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("sweep done", zap.String("sweep", name), zap.Int("processed", n))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-expire.C:
			run("expire pending", sweeper.ExpirePending)
		case <-complete.C:
			run("complete elapsed", sweeper.CompleteElapsed)
		}
	}
}
