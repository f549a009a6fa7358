package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool tracks background download units. Go never blocks the caller: a task
// waits for its slot inside its own goroutine, so admission control can be
// tightened later without changing the submit contract. A limit of zero
// means unlimited.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	active atomic.Int64
	log    *slog.Logger
}

func NewPool(limit int, log *slog.Logger) *Pool {
	p := &Pool{
		log: log.With(slog.String("item", "WorkerPool")),
	}

	if limit > 0 {
		p.sem = make(chan struct{}, limit)
	}

	return p
}

func (p *Pool) Go(fn func()) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			p.sem <- struct{}{}
			defer func() { <-p.sem }()
		}

		p.active.Add(1)
		defer p.active.Add(-1)

		fn()
	}()
}

func (p *Pool) Active() int64 {
	return p.active.Load()
}

// Wait blocks until every submitted task has finished or the context ends.
// Running downloads are never cancelled, shutdown only stops waiting for them.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.log.Info("Interrupted", slog.Int64("active", p.Active()))

		return ctx.Err()
	}
}
