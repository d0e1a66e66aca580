package scheduler

import (
	"context"
	"sync"
	"time"

	appeinvoice "github.com/erp/invoicing/internal/application/einvoice"
	"go.uber.org/zap"
)

// StatusPoller runs one pass over in-progress e-invoice submissions
type StatusPoller interface {
	PollOnce(ctx context.Context) (appeinvoice.PollSummary, error)
}

// StatusPollSchedulerConfig holds configuration for the status poll loop
type StatusPollSchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
	// PassTimeout bounds one polling pass
	PassTimeout time.Duration
}

// DefaultStatusPollSchedulerConfig returns default configuration
func DefaultStatusPollSchedulerConfig() StatusPollSchedulerConfig {
	return StatusPollSchedulerConfig{
		Enabled:     true,
		Interval:    10 * time.Minute,
		PassTimeout: 5 * time.Minute,
	}
}

// StatusPollScheduler triggers the e-invoice status poll on a fixed interval.
// A pass that is still running when the next tick fires delays that tick;
// passes never overlap.
type StatusPollScheduler struct {
	poller    StatusPoller
	logger    *zap.Logger
	config    StatusPollSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewStatusPollScheduler creates a new status poll scheduler
func NewStatusPollScheduler(poller StatusPoller, logger *zap.Logger, config StatusPollSchedulerConfig) *StatusPollScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusPollScheduler{
		poller: poller,
		logger: logger,
		config: config,
	}
}

// Start starts the poll loop
func (s *StatusPollScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("E-invoice status poller is disabled")
		return nil
	}
	if s.config.Interval <= 0 {
		s.mu.Unlock()
		return ErrInvalidConfig
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("E-invoice status poller started",
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop gracefully stops the poll loop
func (s *StatusPollScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("E-invoice status poller stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("E-invoice status poller stop timed out")
		return ctx.Err()
	}
}

func (s *StatusPollScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *StatusPollScheduler) pollOnce(ctx context.Context) {
	passCtx := ctx
	if s.config.PassTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, s.config.PassTimeout)
		defer cancel()
	}

	started := time.Now()
	summary, err := s.poller.PollOnce(passCtx)
	if err != nil {
		s.logger.Error("E-invoice status poll aborted",
			zap.Int("checked", summary.Checked),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("E-invoice status poll completed",
		zap.Int("checked", summary.Checked),
		zap.Int("updated", summary.Updated),
		zap.Int("pending", summary.Pending),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", time.Since(started)),
	)
}
