package game

import (
	"context"
	"time"
)

// Cancel stops a scheduled task. Calling it more than once is fine.
type Cancel func()

func (c Cancel) cancel() {
	if c != nil {
		c()
	}
}

// Scheduler runs callbacks on the Service loop, either periodically or once
// after a delay. Callbacks never run concurrently with each other or with
// action handlers.
type Scheduler interface {
	Every(d time.Duration, fn func()) Cancel
	After(d time.Duration, fn func()) Cancel
}

// loopScheduler drives timers on their own goroutines and posts the
// callbacks back onto the loop.
type loopScheduler struct {
	post func(ctx context.Context, fn func()) bool
}

func (ls loopScheduler) Every(d time.Duration, fn func()) Cancel {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !ls.post(ctx, guarded(ctx, fn)) {
					return
				}
			}
		}
	}()
	return Cancel(cancel)
}

func (ls loopScheduler) After(d time.Duration, fn func()) Cancel {
	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(d, func() {
		ls.post(ctx, guarded(ctx, fn))
	})
	return func() {
		timer.Stop()
		cancel()
	}
}

// guarded drops a callback that was already queued when its task got
// cancelled.
func guarded(ctx context.Context, fn func()) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		fn()
	}
}
