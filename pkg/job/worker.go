package job

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull is returned when the pool's queue cannot take more jobs.
var ErrQueueFull = errors.New("job queue is full")

// Pool processes queued jobs concurrently, one job per worker at a
// time. Each job runs the full state machine independently; a stalled
// provider send in one job never blocks another's progress.
type Pool struct {
	coordinator *Coordinator
	queue       chan *Record
	workers     int
	logger      zerolog.Logger

	mu       sync.RWMutex
	inflight map[string]Status
}

// PoolOptions configures a Pool.
type PoolOptions struct {
	Workers   int // defaults to 4
	QueueSize int // defaults to 64
	Logger    zerolog.Logger
}

// NewPool creates a worker pool over the coordinator.
func NewPool(coordinator *Coordinator, opts PoolOptions) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		coordinator: coordinator,
		queue:       make(chan *Record, queueSize),
		workers:     workers,
		logger:      opts.Logger,
		inflight:    make(map[string]Status),
	}
}

// Submit queues a job for processing.
func (p *Pool) Submit(rec *Record) error {
	p.mu.Lock()
	p.inflight[rec.ID] = rec.Status
	p.mu.Unlock()

	select {
	case p.queue <- rec:
		return nil
	default:
		p.mu.Lock()
		delete(p.inflight, rec.ID)
		p.mu.Unlock()
		return ErrQueueFull
	}
}

// Status reports the last observed status of a queued or running job.
// Terminal records live in the store, not here.
func (p *Pool) Status(id string) (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.inflight[id]
	return s, ok
}

// Run processes jobs until ctx is cancelled. It blocks; run it in its
// own goroutine or errgroup.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case rec := <-p.queue:
					p.process(ctx, rec)
				}
			}
		})
	}
	return g.Wait()
}

func (p *Pool) process(ctx context.Context, rec *Record) {
	if err := p.coordinator.Run(ctx, rec); err != nil {
		p.logger.Warn().Str("job_id", rec.ID).Err(err).Msg("job finished with failure")
	}
	p.mu.Lock()
	delete(p.inflight, rec.ID)
	p.mu.Unlock()
}
