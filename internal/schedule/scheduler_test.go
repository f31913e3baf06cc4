package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	mu      sync.Mutex
	started int
	release chan struct{}
	lastCtx context.Context
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.started++
	j.lastCtx = ctx
	j.mu.Unlock()
	<-j.release
	return nil
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&blockingJob{release: make(chan struct{})}, "not a cron spec"))
	require.NoError(t, s.AddJob(&blockingJob{release: make(chan struct{})}, "*/5 * * * *"))
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{release: make(chan struct{})}
	fn := s.wrap(job, "* * * * *")

	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	require.Eventually(t, func() bool {
		job.mu.Lock()
		defer job.mu.Unlock()
		return job.started == 1
	}, time.Second, 5*time.Millisecond)

	// second tick while the first run is still blocked
	fn()
	job.mu.Lock()
	require.Equal(t, 1, job.started)
	job.mu.Unlock()

	close(job.release)
	<-done
}

func TestStopCancelsRunContext(t *testing.T) {
	s := NewCronScheduler()
	s.Start(context.Background())

	ctx := s.runContext()
	require.NoError(t, ctx.Err())

	s.Stop()
	require.Error(t, ctx.Err())
}
