package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const defaultReapInterval = 5 * time.Minute

// Reaper periodically deletes expired token records. It is an optional
// housekeeping loop: expiry is already checked lazily at use time, so
// correctness never depends on it running.
type Reaper struct {
	store    TokenStore
	logger   Logger
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

func NewReaper(store TokenStore, interval time.Duration, logger Logger) (*Reaper, error) {
	if store == nil {
		return nil, fmt.Errorf("core: token store is required")
	}
	if interval <= 0 {
		interval = defaultReapInterval
	}
	return &Reaper{
		store:    store,
		logger:   glog.Ensure(logger),
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (r *Reaper) Start(ctx context.Context) {
	if r == nil {
		return
	}
	r.startOnce.Do(func() {
		r.started.Store(true)
		go r.run(ctx)
	})
}

// Stop halts the loop and waits for it to drain. Safe to call without a
// prior Start and safe to call more than once.
func (r *Reaper) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	if !r.started.Load() {
		return
	}
	<-r.done
}

// RunOnce performs a single reap pass and returns the number of records
// removed.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	if r == nil || r.store == nil {
		return 0, fmt.Errorf("core: reaper is not configured")
	}
	return r.store.DeleteExpired(ctx, time.Now().UTC())
}

func (r *Reaper) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			removed, err := r.RunOnce(ctx)
			if err != nil {
				r.logger.Error("token reap failed", "error", err.Error())
				continue
			}
			if removed > 0 {
				r.logger.Info("expired tokens removed", "count", removed)
			}
		}
	}
}
