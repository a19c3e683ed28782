package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrQueueClosed = errors.New("jobs: queue is not running")
	ErrQueueFull   = errors.New("jobs: queue is full")
)

// Job is one unit of background work, for example a single outbound email.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff step; each later retry waits twice as long.
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 64
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Queue is an in-process worker pool. Enqueue never blocks: a full buffer is
// reported to the caller. Stop lets workers finish what is already buffered
// and abandons retries that have not fired yet.
type Queue struct {
	name   string
	handle Handler
	cfg    QueueConfig
	log    *zap.Logger

	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	inbox   chan Job
	workers sync.WaitGroup
}

func NewQueue(name string, handle Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name:   name,
		handle: handle,
		cfg:    cfg,
		log:    cfg.Logger.With(zap.String("queue", name)),
	}
}

// Start launches the workers. Calling it on a running queue does nothing.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.inbox = make(chan Job, q.cfg.BufferSize)
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work(q.inbox)
	}
	q.log.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop closes the queue to new work and waits for the workers to drain it.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.inbox)
	q.mu.Unlock()

	q.workers.Wait()
	q.cancel()
	q.log.Info("queue stopped")
}

// Enqueue stamps job with an ID and time when missing and buffers it.
func (q *Queue) Enqueue(job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	}
	select {
	case q.inbox <- job:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

func (q *Queue) work(inbox <-chan Job) {
	defer q.workers.Done()
	for job := range inbox {
		err := q.safeHandle(job)
		if err == nil {
			continue
		}
		q.retry(job, err)
	}
}

func (q *Queue) safeHandle(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return q.handle(q.ctx, job)
}

func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(cause)}
	if job.Attempt > q.cfg.MaxRetries {
		q.log.Error("job abandoned", fields...)
		return
	}

	delay := q.cfg.RetryDelay << (job.Attempt - 1)
	q.log.Warn("job failed", append(fields, zap.Duration("retry_in", delay))...)
	time.AfterFunc(delay, func() {
		if err := q.Enqueue(job); err != nil {
			q.log.Error("job retry dropped", zap.String("job_id", job.ID), zap.Error(err))
		}
	})
}
