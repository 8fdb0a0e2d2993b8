// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains the supervisor that manages the moviegraph workers.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultSupervisorTimeout = 30 * time.Second

// A worker that can be supervised.
type Worker interface {
	fmt.Stringer

	// Start the worker; it must send to ready once it is able to serve.
	// The worker stops when the context is cancelled.
	Start(ctx context.Context, ready chan<- struct{}) error
}

// SupervisorWorker starts the workers in order, waiting for each one to be
// ready before starting the next. If any worker exits, the others are
// cancelled.
type SupervisorWorker struct {
	Name    string
	Workers []Worker
	Timeout time.Duration
}

func (w SupervisorWorker) String() string {
	if w.Name == "" {
		return "supervisor"
	}
	return w.Name
}

func (w SupervisorWorker) Start(ctx context.Context, ready chan<- struct{}) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	timeout := w.Timeout
	if timeout == 0 {
		timeout = DefaultSupervisorTimeout
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(w.Workers))

	for _, worker := range w.Workers {
		worker := worker
		wg.Add(1)
		innerReady := make(chan struct{}, 1)
		go func() {
			defer wg.Done()
			defer cancel()
			err := worker.Start(ctx, innerReady)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("supervisor: worker exited with error", "worker", worker, "error", err)
				errs <- fmt.Errorf("%v: %w", worker, err)
			} else {
				slog.Debug("supervisor: worker exited with success", "worker", worker)
			}
		}()
		select {
		case <-innerReady:
			slog.Debug("supervisor: worker is ready", "worker", worker)
		case <-time.After(timeout):
			slog.Error("supervisor: worker timed out", "worker", worker, "timeout", timeout)
			cancel()
			wg.Wait()
			return fmt.Errorf("supervisor: %v timed out after %v", worker, timeout)
		case <-ctx.Done():
			wg.Wait()
			return firstError(errs, ctx.Err())
		}
	}

	slog.Debug("supervisor: all workers are ready", "supervisor", w)
	ready <- struct{}{}

	<-ctx.Done()
	slog.Debug("supervisor: stopping workers", "supervisor", w)
	wg.Wait()
	return firstError(errs, ctx.Err())
}

func firstError(errs chan error, fallback error) error {
	select {
	case err := <-errs:
		return err
	default:
		return fallback
	}
}
