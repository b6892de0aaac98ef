package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return nil
}

func TestValidateSpec(t *testing.T) {
	require.NoError(t, ValidateSpec("0 3 * * *"))
	require.NoError(t, ValidateSpec("@every 1h"))
	require.Error(t, ValidateSpec("every day"))
}

func TestCronScheduler(t *testing.T) {
	s := NewCronScheduler(nil)
	job := &countingJob{}
	require.Error(t, s.AddJob(job, "bogus"))
	require.NoError(t, s.AddJob(job, "@every 1s"))
	require.Equal(t, []string{"counting"}, s.Entries())
	require.NoError(t, s.AddJob(&blockingJob{}, "@every 1h"))
	require.Equal(t, []string{"blocking", "counting"}, s.Entries())

	s.Start(context.Background())
	defer s.Stop()
	require.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestWrap_SkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler(nil)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	job := &blockingJob{started: started, release: release}
	fn := s.wrap(job, "manual")

	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	<-started
	fn() // 上一次尚未结束，直接跳过
	close(release)
	<-done
	require.Equal(t, int32(1), job.runs.Load())
}

type blockingJob struct {
	runs    atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(context.Context) error {
	j.runs.Add(1)
	j.started <- struct{}{}
	<-j.release
	return nil
}
