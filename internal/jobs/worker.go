package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftsign/draftsign-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker manages background jobs and scheduled tasks. Jobs enqueued with
// EnqueueForDocument are serialized per document id so a superseded render
// can never overwrite a newer one; jobs for different documents run
// concurrently.
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan Job
	asyncSem      chan struct{}
	maxConcurrent int

	lanesMu sync.Mutex
	lanes   map[uint][]Job
	running map[uint]bool

	stats   WorkerStats
	statsMu sync.RWMutex
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan Job, 100),
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
		lanes:         make(map[uint][]Job),
		running:       make(map[uint]bool),
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to be processed by the worker pool
func (w *Worker) Enqueue(job Job) {
	select {
	case w.queue <- job:
	default:
		logger.Warn("[Worker] Queue full, running job synchronously")
		if err := job(w.ctx); err != nil {
			logger.Error(fmt.Sprintf("[Worker] Job error: %v", err))
		}
	}
}

// EnqueueForDocument adds a job to the document's FIFO lane. Jobs for the
// same document run one at a time, in enqueue order.
func (w *Worker) EnqueueForDocument(documentID uint, job Job) {
	w.lanesMu.Lock()
	w.lanes[documentID] = append(w.lanes[documentID], job)
	if w.running[documentID] {
		w.lanesMu.Unlock()
		return
	}
	w.running[documentID] = true
	w.lanesMu.Unlock()

	w.wg.Add(1)
	go w.drainLane(documentID)
}

// drainLane runs the document's queued jobs in order until the lane empties
func (w *Worker) drainLane(documentID uint) {
	defer w.wg.Done()
	for {
		w.lanesMu.Lock()
		lane := w.lanes[documentID]
		if len(lane) == 0 {
			w.running[documentID] = false
			delete(w.lanes, documentID)
			w.lanesMu.Unlock()
			return
		}
		job := lane[0]
		w.lanes[documentID] = lane[1:]
		w.lanesMu.Unlock()

		select {
		case <-w.ctx.Done():
			return
		case w.asyncSem <- struct{}{}:
		}
		w.runOne(fmt.Sprintf("doc %d", documentID), job)
		<-w.asyncSem
	}
}

// EnqueueAsync runs a job in a new goroutine (fire-and-forget), bounded by semaphore
func (w *Worker) EnqueueAsync(job Job) {
	go func() {
		w.asyncSem <- struct{}{}
		defer func() { <-w.asyncSem }()

		w.wg.Add(1)
		defer w.wg.Done()

		w.runOne("async", job)
	}()
}

func (w *Worker) runOne(label string, job Job) {
	w.trackJobStart()
	defer w.trackJobEnd()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("[Worker] %s job panic: %v", label, r))
			w.trackJobFailure()
		}
	}()

	if err := job(w.ctx); err != nil {
		logger.Error(fmt.Sprintf("[Worker] %s job error: %v", label, err))
		w.trackJobFailure()
	}
}

// process handles jobs from the shared queue
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.trackJobStart()
			start := time.Now()
			if err := job(w.ctx); err != nil {
				logger.Error(fmt.Sprintf("[Worker %d] Job error: %v", workerID, err))
				w.trackJobFailure()
			} else {
				logger.Info(fmt.Sprintf("[Worker %d] Job completed in %v", workerID, time.Since(start)))
			}
			w.trackJobEnd()
		}
	}
}

// Retry wraps a job with bounded attempts and exponential backoff. A nil
// onExhausted is allowed; otherwise it runs once after the final failure
// (dead-letter hook).
func Retry(attempts int, baseDelay time.Duration, job Job, onExhausted func(ctx context.Context, err error)) Job {
	if attempts < 1 {
		attempts = 1
	}
	return func(ctx context.Context) error {
		var err error
		delay := baseDelay
		for attempt := 1; attempt <= attempts; attempt++ {
			err = job(ctx)
			if err == nil {
				return nil
			}
			if attempt == attempts {
				break
			}
			logger.Warn(fmt.Sprintf("[Worker] attempt %d/%d failed, retrying in %v: %v", attempt, attempts, delay, err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if onExhausted != nil {
			onExhausted(ctx, err)
		}
		return fmt.Errorf("job failed after %d attempts: %w", attempts, err)
	}
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after the interval (not at startup).
func (w *Worker) ScheduleEvery(interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.runScheduledJob(job)
			}
		}
	}()
}

func (w *Worker) runScheduledJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("[Scheduler] Job panic: %v", r))
			w.trackJobFailure()
			w.trackJobEnd()
		}
	}()
	w.trackJobStart()
	start := time.Now()
	if err := job(w.ctx); err != nil {
		logger.Error(fmt.Sprintf("[Scheduler] Job error: %v", err))
		w.trackJobFailure()
	} else {
		logger.Info(fmt.Sprintf("[Scheduler] Job completed in %v", time.Since(start)))
	}
	w.trackJobEnd()
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.cancel()
	close(w.queue)
	w.wg.Wait()
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) trackJobEnd() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
}

func (w *Worker) trackJobFailure() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.FailedJobs++
}
