// Package worker runs the background loops that drain the archive
// queues. Workers coordinate only through the database; there is no
// in-process work distribution.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one polling attempt. It reports whether it found work; a
// worker that found none sleeps for the idle interval before polling
// again.
type Task func(ctx context.Context) (worked bool, err error)

// Pool supervises a fixed set of identical polling workers.
type Pool struct {
	name         string
	workers      int
	idleInterval time.Duration
	logger       *zap.Logger
}

// NewPool creates a Pool of n workers.
func NewPool(name string, n int, idleInterval time.Duration, logger *zap.Logger) *Pool {
	return &Pool{
		name:         name,
		workers:      n,
		idleInterval: idleInterval,
		logger:       logger,
	}
}

// Run starts the workers and blocks until ctx is cancelled and every
// worker has finished its in-flight attempt.
func (p *Pool) Run(ctx context.Context, task Task) {
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.supervise(ctx, id, task)
		}(i)
	}

	p.logger.Info("worker pool started",
		zap.String("pool", p.name),
		zap.Int("workers", p.workers))

	wg.Wait()

	p.logger.Info("worker pool stopped", zap.String("pool", p.name))
}

// supervise keeps one worker loop alive, restarting it after a panic.
func (p *Pool) supervise(ctx context.Context, id int, task Task) {
	for ctx.Err() == nil {
		p.runLoop(ctx, id, task)
	}
}

func (p *Pool) runLoop(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker panicked, restarting",
				zap.String("pool", p.name),
				zap.Int("worker", id),
				zap.Any("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		worked, err := task(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("worker attempt failed",
				zap.String("pool", p.name),
				zap.Int("worker", id),
				zap.Error(err))
		}

		if worked && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.idleInterval):
		}
	}
}
