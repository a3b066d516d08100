package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/askpatrick/patrick/internal/telemetry"
	"github.com/askpatrick/patrick/session"
)

// BusyMessage is returned to callers rejected by a full queue.
const BusyMessage = "I'm handling too many questions right now. Please try again in a moment."

// ErrQueueFull signals that the job queue rejected a submission.
var ErrQueueFull = errors.New("worker: queue full")

// ErrStopped signals a submission after shutdown began.
var ErrStopped = errors.New("worker: pool stopped")

// Handler processes one query, with the session's earlier exchanges, and
// returns its answer.
type Handler func(ctx context.Context, query string, history []session.Exchange) string

type job struct {
	ctx     context.Context
	query   string
	history []session.Exchange
	reply   chan string
}

// Pool runs query jobs on a fixed number of workers over a bounded queue.
// Submissions beyond the queue capacity are rejected immediately rather than
// blocking the caller.
type Pool struct {
	logger  *log.Logger
	metrics *telemetry.Telemetry
	handler Handler

	jobs chan job
	wg   sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewPool(workers, queueSize int, handler Handler, logger *log.Logger, metrics *telemetry.Telemetry) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{
		logger:  logger,
		metrics: metrics,
		handler: handler,
		jobs:    make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

// Submit enqueues a query and waits for its answer. Returns ErrQueueFull when
// the queue has no room and ErrStopped after Shutdown.
func (p *Pool) Submit(ctx context.Context, query string, history []session.Exchange) (string, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return "", ErrStopped
	}
	j := job{ctx: ctx, query: query, history: history, reply: make(chan string, 1)}
	select {
	case p.jobs <- j:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		p.metrics.IncQueueRejections()
		p.logger.Printf("queue full, rejecting query")
		return "", ErrQueueFull
	}

	select {
	case answer := <-j.reply:
		return answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for in-flight work to drain, or
// until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		// the submitter already gave up; leaving the reply unsent makes
		// Submit surface ctx.Err() instead of an empty answer
		if j.ctx.Err() != nil {
			continue
		}
		j.reply <- p.handler(j.ctx, j.query, j.history)
	}
}
