// Package scheduler runs the asynchronous side effects of invoice
// transitions on a bounded worker pool, and the periodic e-invoice status
// poll.
package scheduler

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
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
	ErrJobQueueFull        = errors.New("scheduler: job queue full")
	ErrUnknownJobType      = errors.New("scheduler: no executor for job type")
	ErrInvalidConfig       = errors.New("scheduler: invalid configuration")
)

// JobType names the work a job performs
type JobType string

const (
	JobTypeGenerateDocument JobType = "generate_document"
	JobTypeSubmitEInvoice   JobType = "submit_einvoice"
)

// Job is one piece of background work on one invoice. Attempt starts at 1
// and grows with every retry.
type Job struct {
	ID        uuid.UUID
	Type      JobType
	TenantID  uuid.UUID
	InvoiceID uuid.UUID
	Attempt   int
	LastError string
}

func (j *Job) fields() []zap.Field {
	return []zap.Field{
		zap.Stringer("job_id", j.ID),
		zap.String("job_type", string(j.Type)),
		zap.Stringer("tenant_id", j.TenantID),
		zap.Stringer("invoice_id", j.InvoiceID),
		zap.Int("attempt", j.Attempt),
	}
}

// JobExecutor performs one job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// ExecutorFunc adapts a function to JobExecutor
type ExecutorFunc func(ctx context.Context, job *Job) error

func (f ExecutorFunc) Execute(ctx context.Context, job *Job) error { return f(ctx, job) }

// ExhaustedHandler is called once a job has failed its last attempt
type ExhaustedHandler func(ctx context.Context, job *Job, err error)

// FinishedHandler is called once a job has succeeded (err is nil) or has
// failed its last attempt. It is not called for jobs cut short by Stop.
type FinishedHandler func(ctx context.Context, job *Job, err error)

// minRequeueDelay bounds how often a retry that found the queue full tries
// again
const minRequeueDelay = 50 * time.Millisecond

// SchedulerConfig sizes the pool and the retry policy
type SchedulerConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	// RetryAttempts is the total number of attempts per job, first included
	RetryAttempts int
	// RetryDelay is the wait before the second attempt. It doubles for every
	// further attempt up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultSchedulerConfig returns the settings used when none are configured
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       3,
		QueueSize:     100,
		JobTimeout:    2 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
		MaxRetryDelay: 10 * time.Minute,
	}
}

// Validate checks the configuration
func (c SchedulerConfig) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalidConfig)
	case c.RetryAttempts < 1:
		return fmt.Errorf("%w: retry attempts must be at least 1", ErrInvalidConfig)
	case c.JobTimeout <= 0:
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// backoff is the wait after a failed attempt
func (c SchedulerConfig) backoff(attempt int) time.Duration {
	d := c.RetryDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if c.MaxRetryDelay > 0 && d >= c.MaxRetryDelay {
			return c.MaxRetryDelay
		}
	}
	return d
}

// Scheduler runs jobs on a fixed pool of workers. It holds jobs in memory
// only: whatever is queued or waiting for a retry on Stop is left to the
// JobRelay, which claims it again once its lease expires.
type Scheduler struct {
	config    SchedulerConfig
	executors map[JobType]JobExecutor
	exhausted ExhaustedHandler
	finished  FinishedHandler
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	queue   chan *Job
	pending map[uuid.UUID]*time.Timer
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler
func NewScheduler(config SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:    config,
		executors: make(map[JobType]JobExecutor),
		logger:    logger.Named("jobs"),
		pending:   make(map[uuid.UUID]*time.Timer),
	}
}

// Register sets the executor for a job type. It must be called before Start.
func (s *Scheduler) Register(jobType JobType, executor JobExecutor) {
	s.executors[jobType] = executor
}

// OnExhausted sets the handler called when a job runs out of attempts
func (s *Scheduler) OnExhausted(handler ExhaustedHandler) {
	s.exhausted = handler
}

// OnFinished sets the handler called when a job settles. It must be called
// before Start.
func (s *Scheduler) OnFinished(handler FinishedHandler) {
	s.finished = handler
}

// Start launches the workers. Starting a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue = make(chan *Job, s.config.QueueSize)
	s.running = true

	for id := range s.config.Workers {
		s.wg.Add(1)
		go s.work(ctx, id)
	}
	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Int("retry_attempts", s.config.RetryAttempts),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
	}
	close(s.queue)
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob queues a job without blocking
func (s *Scheduler) SubmitJob(job *Job) error {
	if _, ok := s.executors[job.Type]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrSchedulerNotRunning
	}
	select {
	case s.queue <- job:
		s.logger.Debug("Job queued", job.fields()...)
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) work(ctx context.Context, id int) {
	defer s.wg.Done()
	log := s.logger.With(zap.Int("worker_id", id))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.queue:
			if !ok {
				return
			}
			s.process(ctx, log, job)
		}
	}
}

func (s *Scheduler) process(ctx context.Context, log *zap.Logger, job *Job) {
	log = log.With(job.fields()...)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.execute(jobCtx, job)
	cancel()

	if err == nil {
		log.Info("Job completed")
		if s.finished != nil && ctx.Err() == nil {
			s.finished(ctx, job, nil)
		}
		return
	}
	job.LastError = err.Error()

	if job.Attempt < s.config.RetryAttempts {
		delay := s.config.backoff(job.Attempt)
		log.Warn("Job failed, will retry", zap.Error(err), zap.Duration("retry_in", delay))
		job.Attempt++
		s.retryAfter(job, delay)
		return
	}

	log.Error("Job failed permanently", zap.Error(err))
	if ctx.Err() != nil {
		return
	}
	if s.exhausted != nil {
		s.exhausted(ctx, job, err)
	}
	if s.finished != nil {
		s.finished(ctx, job, err)
	}
}

// execute runs the job's executor, reporting a panic as an error
func (s *Scheduler) execute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return s.executors[job.Type].Execute(ctx, job)
}

// retryAfter queues job again once delay has passed. A retry that finds the
// queue full waits another round instead of being dropped, so every failing
// job still reaches the exhausted handler.
func (s *Scheduler) retryAfter(job *Job, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armLocked(job, delay)
}

func (s *Scheduler) armLocked(job *Job, delay time.Duration) {
	if !s.running {
		return
	}
	s.pending[job.ID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, job.ID)
		if !s.running {
			return
		}
		select {
		case s.queue <- job:
		default:
			again := max(delay, minRequeueDelay)
			s.logger.Warn("Job queue full, retry postponed",
				append(job.fields(), zap.Duration("retry_in", again))...)
			s.armLocked(job, again)
		}
	})
}
