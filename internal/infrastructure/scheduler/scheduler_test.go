package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }
func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

type panickingJob struct{}

func (panickingJob) Name() string              { return "boom" }
func (panickingJob) Description() string       { return "panics" }
func (panickingJob) Run(context.Context) error { panic("kaboom") }

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	require.NoError(t, s.Register(&countingJob{name: "a"}, "*/5 * * * *"))
	require.NoError(t, s.Register(&countingJob{name: "b"}, "@every 1m"))

	err := s.Register(&countingJob{name: "a"}, "@hourly")
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	err = s.Register(&countingJob{name: "c"}, "not a cron")
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	assert.ErrorIs(t, s.Register(nil, "@hourly"), ErrNilJob)
	assert.Len(t, s.ListJobs(), 2)

	require.NoError(t, s.Unregister("b"))
	assert.ErrorIs(t, s.Unregister("b"), ErrJobNotFound)
}

func TestScheduler_RunNowRecordsHistory(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("nope")}
	require.NoError(t, s.Register(ok, "@daily"))
	require.NoError(t, s.Register(bad, "@daily"))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	var failed string
	s.OnJobError(func(name string, _ error) { failed = name })
	_, err = s.RunNow(context.Background(), "bad")
	assert.Error(t, err)
	assert.Equal(t, "bad", failed)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.Equal(t, int32(1), ok.runs.Load())
	assert.Len(t, s.GetHistory(0), 2)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalFailures)
}

func TestScheduler_PanicBecomesError(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Register(panickingJob{}, "@daily"))

	res, err := s.RunNow(context.Background(), "boom")
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
