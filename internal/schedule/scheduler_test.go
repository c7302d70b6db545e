package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name    string
	runs    atomic.Int32
	block   chan struct{}
	started chan struct{}
	err     error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.started != nil {
		close(j.started)
	}
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestAddJobRejectsBadSpecAndDuplicates(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "cleanup"}
	require.Error(t, s.AddJob(job, "every tuesday"))
	require.NoError(t, s.AddJob(job, "30 3 * * *"))
	require.Error(t, s.AddJob(job, "0 * * * *"))
}

func TestRunNow(t *testing.T) {
	s := NewCronScheduler()
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	require.NoError(t, s.AddJob(failing, "0 0 * * *"))

	require.EqualError(t, s.RunNow(context.Background(), "failing"), "boom")
	require.Equal(t, int32(1), failing.runs.Load())
	require.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestRunSkipsOverlap(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "slow", block: make(chan struct{}), started: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "0 0 * * *"))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "slow") }()
	<-job.started

	require.ErrorIs(t, s.RunNow(context.Background(), "slow"), ErrJobRunning)
	close(job.block)
	require.NoError(t, <-done)
	require.Equal(t, int32(1), job.runs.Load())
}

func TestStartStop(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "noop"}, "0 0 1 1 *"))
	s.Start(context.Background())
	s.Stop()
}
