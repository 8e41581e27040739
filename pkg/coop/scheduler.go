// Package coop runs tasks cooperatively: many tasks are in flight but only
// the one holding the baton makes progress, and it holds the baton until it
// yields or returns.
package coop

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Task is a unit of work run by a Scheduler.
type Task func(ctx context.Context) error

// Scheduler hands a single baton between tasks. Waiting tasks get the baton
// in the order they asked for it.
type Scheduler struct {
	baton  *semaphore.Weighted
	yields atomic.Int64
}

// New returns an idle scheduler.
func New() *Scheduler {
	return &Scheduler{baton: semaphore.NewWeighted(1)}
}

// Yields returns how many times tasks have handed the baton on.
func (s *Scheduler) Yields() int64 { return s.yields.Load() }

type taskKey struct{}

type running struct {
	s    *Scheduler
	held bool
}

func (r *running) acquire(ctx context.Context) error {
	if err := r.s.baton.Acquire(ctx, 1); err != nil {
		return err
	}
	r.held = true
	return nil
}

func (r *running) release() {
	if r.held {
		r.held = false
		r.s.baton.Release(1)
	}
}

// Run runs tasks and waits for all of them. The first error cancels the
// context passed to the others, which then fail at their next Yield.
func (s *Scheduler) Run(ctx context.Context, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			r := &running{s: s}
			if err := r.acquire(ctx); err != nil {
				return err
			}
			defer r.release()
			return task(context.WithValue(ctx, taskKey{}, r))
		})
	}
	return g.Wait()
}

// Yield gives other tasks of the scheduler running ctx a turn, then waits
// for the baton to come back. Outside a task it only reports cancellation.
func Yield(ctx context.Context) error {
	r, ok := ctx.Value(taskKey{}).(*running)
	if !ok {
		return ctx.Err()
	}
	r.release()
	r.s.yields.Add(1)
	return r.acquire(ctx)
}

// InTask reports whether ctx belongs to a task started by Run.
func InTask(ctx context.Context) bool {
	_, ok := ctx.Value(taskKey{}).(*running)
	return ok
}
