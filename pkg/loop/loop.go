// Package loop runs a task repeatedly until it breaks or its context ends.
package loop

import (
	"context"
	"time"
)

// Next tells Start what to do after a pass.
type Next struct {
	err      error
	quit     bool
	interval time.Duration
}

// Continue runs the task again after interval.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break stops the loop. err may be nil.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task receives the value it returned last time (init on the first pass).
// The zero Next is Continue(0).
type Task[T any] func(context.Context, T) (T, Next)

// Start calls task until it breaks or ctx is done, and returns the last value
// with the Break error or ctx.Err().
func Start[T any](ctx context.Context, init T, task Task[T], options ...Option) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		lc := &config{ctx: ctx}
		for _, opt := range options {
			lc = opt(lc)
		}

		v, n := func() (T, Next) {
			if lc.deferred != nil {
				defer lc.deferred()
			}
			return task(lc.ctx, value)
		}()

		if n.err != nil {
			return v, n.err
		} else if n.quit {
			return v, nil
		}
		value = v

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			// shutdown wins over a timer that fired at the same time
			if !timer.Stop() {
				<-timer.C
			}
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

type config struct {
	ctx      context.Context
	deferred func()
}

type Option func(*config) *config

// WithTimeout bounds each pass. The timeout applies to the context handed to
// the task, not to the wait between passes.
func WithTimeout(d time.Duration) Option {
	return func(lc *config) *config {
		ctx, cancel := context.WithTimeout(lc.ctx, d)
		return &config{
			ctx: ctx,
			deferred: func() {
				if lc.deferred != nil {
					defer lc.deferred()
				}
				cancel()
			},
		}
	}
}
