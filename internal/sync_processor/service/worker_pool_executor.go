package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// WorkerPoolExecutor runs record groups on a bounded ants pool
type WorkerPoolExecutor struct {
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolExecutor(config WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolExecutor, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolExecutor{
		pool:   pool,
		logger: logger,
	}, nil
}

// Execute submits one task per group and waits for all of them. When a submission fails,
// groups not yet submitted are skipped and the submission error is returned.
func (e *WorkerPoolExecutor) Execute(ctx context.Context, groups [][]int, fn func(ctx context.Context, index int)) error {
	var wg sync.WaitGroup
	var submitErr error

	for _, group := range groups {
		group := group
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			for _, index := range group {
				fn(ctx, index)
			}
		})
		if err != nil {
			wg.Done()
			e.logger.Error("Failed to submit record group to worker pool",
				"group_size", len(group),
				"error", err,
			)
			submitErr = err
			break
		}
	}

	wg.Wait()
	return submitErr
}

// Shutdown gracefully shuts down the worker pool.
func (e *WorkerPoolExecutor) Shutdown() {
	e.logger.Info("Shutting down worker pool", "running_workers", e.pool.Running())
	e.pool.Release()
}

// Running returns the number of running workers in the pool.
func (e *WorkerPoolExecutor) Running() int {
	return e.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (e *WorkerPoolExecutor) Capacity() int {
	return e.pool.Cap()
}

// SequentialExecutor runs every group on the calling goroutine
type SequentialExecutor struct{}

func (SequentialExecutor) Execute(ctx context.Context, groups [][]int, fn func(ctx context.Context, index int)) error {
	for _, group := range groups {
		for _, index := range group {
			fn(ctx, index)
		}
	}
	return nil
}
