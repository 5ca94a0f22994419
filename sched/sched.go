// Package sched runs independent file generations on a pool of workers.
//
// The queue is unbounded and tasks may submit further tasks, so a worker
// never blocks on its own pool. [Pool.Wait] returns only after the queue
// has been observed empty with no task running; no task can enqueue more
// work after that point.
//
// A failing task does not cancel the others. All failures are returned
// together from Wait.
package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oldgreydog/codegen/log"
	"github.com/oldgreydog/codegen/pkg"
)

var (
	ErrClosed = pkg.NewError("submit to closed pool")
	ErrPanic  = pkg.NewError("task panicked")
)

// Task is a unit of work.
type Task func(ctx context.Context) error

// Pool is a fixed set of workers consuming an unbounded task queue.
type Pool struct {
	ctx    context.Context
	logger log.Logger
	// group tracks worker lifetimes only. Workers never return an error;
	// task errors go to errs so Wait reports all of them, not the first.
	group errgroup.Group

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	active int
	closed bool
	errs   []error
	done   int
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for task events.
func WithLogger(logger log.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// New starts a Pool with the given number of workers. A count below one
// uses [runtime.NumCPU]. Tasks receive ctx.
func New(ctx context.Context, workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	p := &Pool{ctx: ctx}
	p.cond = sync.NewCond(&p.mu)

	for _, opt := range opts {
		opt(p)
	}

	for id := range workers {
		p.group.Go(func() error {
			p.work(id)

			return nil
		})
	}

	p.logger.TraceContext(ctx, "pool started", slog.Int("workers", workers))

	return p
}

// Submit enqueues t. It never blocks. Submitting after Wait has returned
// fails with [ErrClosed].
func (p *Pool) Submit(t Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.queue = append(p.queue, t)
	p.cond.Broadcast()

	return nil
}

// Wait blocks until every submitted task, including tasks submitted by
// running tasks, has finished. It then stops the workers and returns the
// joined task errors.
func (p *Pool) Wait() error {
	p.mu.Lock()

	for len(p.queue) > 0 || p.active > 0 {
		p.cond.Wait()
	}

	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	_ = p.group.Wait() // workers always return nil

	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.TraceContext(p.ctx, "pool stopped",
		slog.Int("tasks", p.done),
		slog.Int("failed", len(p.errs)),
	)

	return errors.Join(p.errs...)
}

func (p *Pool) work(id int) {
	for {
		p.mu.Lock()

		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}

		if len(p.queue) == 0 {
			p.mu.Unlock()

			return
		}

		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.active++
		p.mu.Unlock()

		err := p.run(t)

		p.mu.Lock()
		p.active--
		p.done++

		if err != nil {
			p.errs = append(p.errs, err)
			p.logger.DebugContext(p.ctx, "task failed",
				slog.Int("worker", id),
				slog.Any("error", err),
			)
		}

		if len(p.queue) == 0 && p.active == 0 {
			p.cond.Broadcast()
		}

		p.mu.Unlock()
	}
}

func (p *Pool) run(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPanic.Wrap(fmt.Errorf("%v", r))
		}
	}()

	return t(p.ctx)
}
