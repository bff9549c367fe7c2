package scrape

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-scraper/internal/config"
)

// ErrQueueFull is returned by Submit when the queue buffer has no room.
// Callers surface it as a retry-later condition.
var ErrQueueFull = errors.New("scrape queue full")

// ErrQueueClosed is returned by Submit after Stop has begun.
var ErrQueueClosed = errors.New("scrape queue closed")

// runner executes one job to a terminal state.
type runner interface {
	Run(ctx context.Context, job Job) error
}

// Queue runs jobs on a fixed pool of workers fed by a buffered channel.
// Each accepted job runs exactly once. A hard per-job wall-clock limit is
// enforced through a context deadline; a smaller soft limit only logs, as
// an early warning that the hard limit is near.
type Queue struct {
	jobs    chan Job
	run     runner
	hard    time.Duration
	soft    time.Duration
	workers int
	log     zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue builds a stopped queue; call Start to launch the workers.
func NewQueue(run runner, cfg config.QueueConfig, log zerolog.Logger) *Queue {
	return &Queue{
		jobs:    make(chan Job, cfg.Capacity),
		run:     run,
		hard:    cfg.TimeLimit,
		soft:    cfg.SoftTimeLimit,
		workers: cfg.Workers,
		log:     log.With().Str("component", "scrape.queue").Logger(),
	}
}

// Start launches the worker pool. Workers exit when the queue is stopped
// and the buffer has drained.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(id int) {
			defer q.wg.Done()
			for job := range q.jobs {
				queueDepth.Set(float64(len(q.jobs)))
				q.runJob(job, id)
			}
		}(i)
	}
	q.log.Info().Int("workers", q.workers).Int("capacity", cap(q.jobs)).Msg("scrape queue started")
}

// Submit enqueues a job without blocking. ErrQueueFull means the buffer is
// at capacity; ErrQueueClosed means Stop has already begun.
func (q *Queue) Submit(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		queueDepth.Set(float64(len(q.jobs)))
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight and buffered jobs to
// finish, or for ctx to expire, whichever comes first.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.log.Info().Msg("scrape queue drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) runJob(job Job, worker int) {
	ctx, cancel := context.WithTimeout(context.Background(), q.hard)
	defer cancel()

	if q.soft > 0 && q.soft < q.hard {
		warn := time.AfterFunc(q.soft, func() {
			q.log.Warn().
				Str("job_id", job.ID).
				Dur("soft_limit", q.soft).
				Msg("job exceeded soft time limit")
		})
		defer warn.Stop()
	}

	q.log.Info().Str("job_id", job.ID).Int("worker", worker).Msg("job dequeued")
	if err := q.run.Run(ctx, job); err != nil {
		// Already recorded on the job row; worker-level log only.
		q.log.Warn().Err(err).Str("job_id", job.ID).Int("worker", worker).Msg("job finished with error")
	}
}
