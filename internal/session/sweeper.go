// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
)

// SweepWorker periodically drops expired sessions from a Sweeper.
type SweepWorker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweepWorker creates a worker. It does nothing until Start.
func NewSweepWorker(sweeper Sweeper, interval time.Duration, logger *slog.Logger) (*SweepWorker, error) {
	if sweeper == nil {
		return nil, oops.Code("SESSION_CONFIG_INVALID").Errorf("sweeper is required")
	}
	if interval <= 0 {
		return nil, oops.Code("SESSION_CONFIG_INVALID").With("interval", interval).Errorf("sweep interval must be positive")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SweepWorker{sweeper: sweeper, interval: interval, logger: logger}, nil
}

// StartSweeper starts a sweep worker for r if r implements Sweeper.
// It returns nil when there is nothing to sweep.
func StartSweeper(ctx context.Context, r Registry, interval time.Duration, logger *slog.Logger) (*SweepWorker, error) {
	sw, ok := r.(Sweeper)
	if !ok || interval <= 0 {
		return nil, nil
	}
	w, err := NewSweepWorker(sw, interval, logger)
	if err != nil {
		return nil, err
	}
	w.Start(ctx)
	return w, nil
}

// Start begins periodic sweeping until ctx is cancelled or Stop is called.
func (w *SweepWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker and waits for it to exit. Safe on a nil worker.
func (w *SweepWorker) Stop() {
	if w == nil {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *SweepWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped, err := w.sweeper.Sweep(ctx)
			if err != nil {
				w.logger.Error("session sweep failed", "error", err)
				continue
			}
			if dropped > 0 {
				w.logger.Debug("swept expired sessions", "dropped", dropped)
			}
		}
	}
}
