package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStore is the persistent side of the job queue
type JobStore interface {
	Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*Job, error)
	Release(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, job *Job) error
	Bury(ctx context.Context, job *Job) error
}

// JobRelayConfig holds the relay's polling settings
type JobRelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// Lease must outlast a job's full run including its retries, or a slow
	// job is claimed a second time.
	Lease time.Duration
}

// DefaultJobRelayConfig returns the settings used when none are configured
func DefaultJobRelayConfig() JobRelayConfig {
	return JobRelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    50,
		Lease:        15 * time.Minute,
	}
}

// JobRelay moves persisted jobs onto the scheduler and records how they
// settle. A job is handed to the scheduler at most once per lease; if the
// process stops before the job settles the row is claimed again after the
// lease runs out.
type JobRelay struct {
	store     JobStore
	scheduler *Scheduler
	config    JobRelayConfig
	logger    *zap.Logger
	now       func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobRelay creates a relay and hooks it into scheduler's settle
// notifications. It must be created before the scheduler starts.
func NewJobRelay(store JobStore, scheduler *Scheduler, config JobRelayConfig, logger *zap.Logger) *JobRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &JobRelay{
		store:     store,
		scheduler: scheduler,
		config:    config,
		logger:    logger.Named("job_relay"),
		now:       time.Now,
	}
	scheduler.OnFinished(r.settle)
	return r
}

// Start launches the polling loop
func (r *JobRelay) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("Job relay started",
		zap.Duration("poll_interval", r.config.PollInterval),
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("lease", r.config.Lease),
	)
	return nil
}

// Stop ends the polling loop and waits for it until ctx expires
func (r *JobRelay) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.logger.Info("Job relay stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *JobRelay) loop(ctx context.Context) {
	defer r.wg.Done()

	r.RelayOnce(ctx)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RelayOnce(ctx)
		}
	}
}

// RelayOnce claims one batch of due jobs and queues them. It returns the
// number of jobs queued.
func (r *JobRelay) RelayOnce(ctx context.Context) int {
	jobs, err := r.store.Claim(ctx, r.now(), r.config.Lease, r.config.BatchSize)
	if err != nil {
		r.logger.Error("Failed to claim jobs", zap.Error(err))
		return 0
	}

	queued := 0
	for i, job := range jobs {
		err := r.scheduler.SubmitJob(job)
		if err == nil {
			queued++
			continue
		}
		if errors.Is(err, ErrJobQueueFull) || errors.Is(err, ErrSchedulerNotRunning) {
			// Hand back this job and the rest of the batch for the next poll.
			for _, rest := range jobs[i:] {
				if relErr := r.store.Release(ctx, rest.ID); relErr != nil {
					r.logger.Warn("Failed to release job", append(rest.fields(), zap.Error(relErr))...)
				}
			}
			r.logger.Debug("Scheduler busy, jobs released", zap.Int("released", len(jobs)-i), zap.Error(err))
			break
		}

		job.LastError = err.Error()
		r.logger.Error("Job cannot be scheduled", append(job.fields(), zap.Error(err))...)
		if buryErr := r.store.Bury(ctx, job); buryErr != nil {
			r.logger.Error("Failed to bury job", append(job.fields(), zap.Error(buryErr))...)
		}
	}
	return queued
}

// settle records a finished job. A failure to write leaves the row leased;
// it runs again once the lease expires.
func (r *JobRelay) settle(ctx context.Context, job *Job, cause error) {
	var err error
	if cause == nil {
		err = r.store.Complete(ctx, job)
	} else {
		err = r.store.Bury(ctx, job)
	}
	if err != nil {
		r.logger.Error("Failed to record job outcome", append(job.fields(), zap.Error(err))...)
	}
}
