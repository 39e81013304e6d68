package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgallion1/txt2epub/internal/config"
	"github.com/dgallion1/txt2epub/internal/convert"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Orchestrator manages the conversion worker pool.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	conv  *convert.Converter
	log   *slog.Logger
	cfg   config.Config

	mu      sync.RWMutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, conv *convert.Converter, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		queue: make(chan *Job, cfg.MaxQueueSize),
		conv:  conv,
		log:   log,
		cfg:   cfg,
	}
	o.jobs = NewJobStore(cfg.JobTTL, o.evict)
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.conv, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					// Restart the TTL so finished jobs stay pollable.
					o.jobs.Put(job)
				}
			}
		}()
	}
}

// Stop cancels the workers and fails every job still queued.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.mu.Unlock()

	o.wg.Wait()

	for job := range o.queue {
		job.Finish(Outcome{Err: context.Canceled, Kind: convert.FailureCanceled})
	}
}

// Drain closes the queue and waits until every submitted job has run.
func (o *Orchestrator) Drain() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	o.wg.Wait()
	if o.cancel != nil {
		o.cancel()
	}
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		err := fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
		job.SetStatus(StatusQueued, "queue_full")
		job.Finish(Outcome{Err: err, Kind: convert.FailureOther})
		return err
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns the number of jobs held in the store.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// evict removes the working directory of a job leaving the store.
func (o *Orchestrator) evict(job *Job) {
	if job.Dir == "" {
		return
	}
	if err := os.RemoveAll(job.Dir); err != nil {
		o.log.Warn("job cleanup failed", "job_id", job.ID, "dir", job.Dir, "error", err)
		return
	}
	o.log.Debug("job evicted", "job_id", job.ID)
}
