package concurrent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type recorder struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *recorder) process(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.EntityID < 0 {
		return errors.New("negative id")
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func TestWorkerPool_ProcessesAndDrainsOnStop(t *testing.T) {
	rec := &recorder{}
	pool := NewWorkerPool(3, 50, rec.process, logger.Nop())
	pool.Start()

	for i := 1; i <= 20; i++ {
		require.True(t, pool.Submit(&domain.AuditLog{EntityType: domain.EntityTypePost, EntityID: int64(i)}))
	}
	require.True(t, pool.Submit(&domain.AuditLog{EntityID: -1}))

	pool.Stop()

	assert.Equal(t, 20, rec.count())
	stats := pool.GetStats()
	assert.Equal(t, int64(21), stats.Submitted)
	assert.Equal(t, int64(20), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, 0, pool.QueueLength())
	assert.Equal(t, 50, pool.QueueCapacity())
}

func TestWorkerPool_RejectsWhenStoppedOrFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := func(ctx context.Context, entry *domain.AuditLog) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}

	pool := NewWorkerPool(1, 1, blocking, logger.Nop())
	assert.False(t, pool.Submit(&domain.AuditLog{}), "not started")

	pool.Start()
	require.True(t, pool.Submit(&domain.AuditLog{EntityID: 1}))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not pick up the first entry")
	}

	require.True(t, pool.Submit(&domain.AuditLog{EntityID: 2}))
	assert.False(t, pool.Submit(&domain.AuditLog{EntityID: 3}), "queue full")

	close(release)
	pool.Stop()

	assert.False(t, pool.Submit(&domain.AuditLog{EntityID: 4}), "stopped")
	assert.Equal(t, int64(1), pool.GetStats().Rejected)
	assert.Equal(t, int64(2), pool.GetStats().Completed)
}

func TestWorkerPool_StartAndStopAreIdempotent(t *testing.T) {
	pool := NewWorkerPool(0, -5, (&recorder{}).process, logger.Nop())
	pool.Start()
	pool.Start()
	pool.Stop()
	pool.Stop()

	assert.Equal(t, 0, pool.QueueCapacity())
}

func TestStatsCollector_AverageProcessingTime(t *testing.T) {
	sc := NewStatsCollector()
	assert.Zero(t, sc.GetStats().AvgProcessTime)

	sc.RecordProcessingTime(10 * time.Millisecond)
	sc.RecordProcessingTime(30 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, sc.GetStats().AvgProcessTime)
}
