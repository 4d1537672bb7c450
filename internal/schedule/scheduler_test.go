package schedule

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	runs    atomic.Int32
	release chan struct{}
	started chan struct{}
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.release != nil {
		<-j.release
	}
	return nil
}

func TestAddJobValidatesSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&blockingJob{}, "not a cron spec"))
	require.NoError(t, s.AddJob(&blockingJob{}, "@every 1h"))
	require.Error(t, s.AddJob(&blockingJob{}, ""))
}

func TestRunNow(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{}
	require.NoError(t, s.AddJob(job, ""))
	require.NoError(t, s.RunNow(context.Background(), "blocking"))
	require.Equal(t, int32(1), job.runs.Load())
	require.Error(t, s.RunNow(context.Background(), "absent"))
}

func TestRunNowSkipsOverlappingRun(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{release: make(chan struct{}), started: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob(job, "0 3 * * *"))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "blocking") }()
	<-job.started

	require.Error(t, s.RunNow(context.Background(), "blocking"))
	close(job.release)
	require.NoError(t, <-done)
	require.Equal(t, int32(1), job.runs.Load())
}
