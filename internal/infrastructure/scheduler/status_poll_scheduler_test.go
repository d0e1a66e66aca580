package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	appeinvoice "github.com/erp/invoicing/internal/application/einvoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingPoller struct {
	calls atomic.Int32
	err   error
}

func (p *countingPoller) PollOnce(context.Context) (appeinvoice.PollSummary, error) {
	p.calls.Add(1)
	return appeinvoice.PollSummary{Checked: 1, Updated: 1}, p.err
}

func TestStatusPollScheduler_PollsOnInterval(t *testing.T) {
	poller := &countingPoller{}
	s := NewStatusPollScheduler(poller, zap.NewNop(), StatusPollSchedulerConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return poller.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	stopped := poller.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, poller.calls.Load(), "no polls after stop")
}

func TestStatusPollScheduler_KeepsPollingAfterError(t *testing.T) {
	poller := &countingPoller{err: errors.New("database unavailable")}
	s := NewStatusPollScheduler(poller, zap.NewNop(), StatusPollSchedulerConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	assert.Eventually(t, func() bool { return poller.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestStatusPollScheduler_Disabled(t *testing.T) {
	poller := &countingPoller{}
	s := NewStatusPollScheduler(poller, zap.NewNop(), StatusPollSchedulerConfig{
		Enabled:  false,
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, int32(0), poller.calls.Load())
}

func TestStatusPollScheduler_RejectsZeroInterval(t *testing.T) {
	s := NewStatusPollScheduler(&countingPoller{}, zap.NewNop(), StatusPollSchedulerConfig{Enabled: true})
	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidConfig)
}
