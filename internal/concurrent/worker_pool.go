package concurrent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
)

type AuditLogProcessor = func(ctx context.Context, entry *domain.AuditLog) error

// WorkerPool drains audit entries in the background so request handlers do
// not wait on the audit database.
type WorkerPool struct {
	numWorkers     int
	jobQueue       chan *domain.AuditLog
	processor      AuditLogProcessor
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	logger         logger.Logger
	started        bool
	mutex          sync.Mutex
	active         atomic.Int64
	statsCollector *StatsCollector
}

func NewWorkerPool(numWorkers int, queueSize int, processor AuditLogProcessor, logger logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers:     numWorkers,
		jobQueue:       make(chan *domain.AuditLog, queueSize),
		processor:      processor,
		ctx:            ctx,
		cancel:         cancel,
		logger:         logger,
		statsCollector: NewStatsCollector(),
	}
}

func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()

	if wp.started {
		return
	}

	wp.logger.Info("Pool de auditoria a iniciar", map[string]interface{}{
		"num_workers": wp.numWorkers,
		"queue_size":  cap(wp.jobQueue),
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go func(workerID int) {
			defer wp.wg.Done()
			wp.worker(workerID)
		}(i)
	}

	wp.started = true
}

// Stop closes the queue and waits for the workers to drain what is left in
// it. Entries submitted after Stop are rejected.
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	if !wp.started {
		wp.mutex.Unlock()
		return
	}
	wp.started = false
	close(wp.jobQueue)
	wp.mutex.Unlock()

	wp.logger.Info("Pool de auditoria a parar", map[string]interface{}{
		"pending": len(wp.jobQueue),
	})
	wp.wg.Wait()
	wp.cancel()
}

// Submit never blocks: it returns false when the pool is stopped or the
// queue is full, and the caller decides what to do with the entry.
func (wp *WorkerPool) Submit(entry *domain.AuditLog) bool {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()

	if !wp.started {
		return false
	}

	select {
	case wp.jobQueue <- entry:
		wp.statsCollector.IncrementSubmitted()
		metrics.UpdateAuditPoolStats(len(wp.jobQueue), int(wp.active.Load()))
		return true
	default:
		wp.statsCollector.IncrementRejected()
		wp.logger.Warn("Fila de auditoria cheia, registo recusado", map[string]interface{}{
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
		})
		return false
	}
}

func (wp *WorkerPool) worker(id int) {
	for entry := range wp.jobQueue {
		wp.active.Add(1)
		startTime := time.Now()

		err := wp.processor(wp.ctx, entry)

		processingTime := time.Since(startTime)
		wp.active.Add(-1)
		metrics.UpdateAuditPoolStats(len(wp.jobQueue), int(wp.active.Load()))

		if err != nil {
			wp.statsCollector.IncrementFailed()
			wp.logger.Error("Registo de auditoria falhou", map[string]interface{}{
				"worker_id":       id,
				"entity_type":     entry.EntityType,
				"entity_id":       entry.EntityID,
				"action":          entry.Action,
				"error":           err.Error(),
				"processing_time": processingTime.String(),
			})
			continue
		}

		wp.statsCollector.IncrementCompleted()
		wp.statsCollector.RecordProcessingTime(processingTime)
	}
}

func (wp *WorkerPool) GetStats() Stats {
	return wp.statsCollector.GetStats()
}

func (wp *WorkerPool) QueueLength() int {
	return len(wp.jobQueue)
}

func (wp *WorkerPool) QueueCapacity() int {
	return cap(wp.jobQueue)
}
