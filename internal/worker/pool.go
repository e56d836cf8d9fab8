package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Task is a best-effort unit of work. Its error is logged, never returned.
type Task func(ctx context.Context) error

// Pool runs best-effort side updates on a bounded number of goroutines.
// A task submitted while every slot is busy is dropped.
type Pool struct {
	mu      sync.RWMutex
	closed  bool
	g       errgroup.Group
	base    context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	log     zerolog.Logger
}

// NewPool creates a Pool running at most size tasks at once, each bounded by timeout.
func NewPool(size int, timeout time.Duration, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	base, cancel := context.WithCancel(context.Background())
	p := &Pool{
		base:    base,
		cancel:  cancel,
		timeout: timeout,
		log:     log.With().Str("component", "worker_pool").Logger(),
	}
	p.g.SetLimit(size)
	return p
}

// Submit schedules fn and reports whether it was accepted.
func (p *Pool) Submit(name string, fn Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.log.Warn().Str("task", name).Msg("Pool is shut down, task dropped")
		metrics.BackgroundTasks.WithLabelValues(name, "dropped").Inc()
		return false
	}
	if !p.g.TryGo(func() error {
		p.run(name, fn)
		return nil
	}) {
		p.log.Warn().Str("task", name).Msg("Pool saturated, task dropped")
		metrics.BackgroundTasks.WithLabelValues(name, "dropped").Inc()
		return false
	}
	return true
}

func (p *Pool) run(name string, fn Task) {
	ctx := p.base
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.base, p.timeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()

	if err != nil {
		p.log.Error().Err(err).Str("task", name).Msg("Background task failed")
		metrics.BackgroundTasks.WithLabelValues(name, "failed").Inc()
		return
	}
	metrics.BackgroundTasks.WithLabelValues(name, "ok").Inc()
}

// Shutdown stops accepting tasks and waits for running ones. When ctx expires
// first, running tasks are cancelled and ctx's error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
