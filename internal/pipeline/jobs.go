package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dgallion1/txt2epub/internal/convert"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusReading    JobStatus = JobStatus(convert.StageReading)
	StatusSegmenting JobStatus = JobStatus(convert.StageSegmenting)
	StatusCollecting JobStatus = JobStatus(convert.StageCollecting)
	StatusAssembling JobStatus = JobStatus(convert.StageAssembling)
	StatusPackaging  JobStatus = JobStatus(convert.StagePackaging)
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Outcome is the per-file result of a job: either a conversion result or a
// classified failure.
type Outcome struct {
	JobID  string
	Source string
	Result convert.Result
	Err    error
	Kind   convert.FailureKind
}

// OK reports whether the conversion succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Job tracks the state of a single conversion.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Dir is removed when the job leaves the store. Empty for jobs whose
	// files are owned by the caller.
	Dir string `json:"-"`

	// Internal: not serialized.
	request convert.Request
	errors  []string
	outcome Outcome
	done    chan struct{}
}

// Progress tracks what the conversion produced so far.
type Progress struct {
	Title    string   `json:"title,omitempty"`
	Chapters int      `json:"chapters"`
	Images   int      `json:"images"`
	Cover    bool     `json:"cover"`
	Output   string   `json:"-"`
	Failure  string   `json:"failure,omitempty"`
	Errors   []string `json:"errors"`
}

// NewJob creates a queued job for req with a fresh ID. The ID doubles as
// the run ID that names the job's scratch directory.
func NewJob(req convert.Request) *Job {
	return NewJobWithID(generateULID(), req)
}

// NewJobWithID is NewJob for an ID obtained earlier from NewID.
func NewJobWithID(id string, req convert.Request) *Job {
	now := time.Now()
	req.RunID = id
	return &Job{
		ID:        id,
		Filename:  req.Source,
		Status:    StatusQueued,
		Phase:     string(StatusQueued),
		CreatedAt: now,
		UpdatedAt: now,
		request:   req,
		done:      make(chan struct{}),
	}
}

// Request returns the conversion request the job runs.
func (j *Job) Request() convert.Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.request
}

// SetStatus updates job status atomically. Terminal jobs are not changed.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return
	}
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// Finish records the outcome, moves the job to its terminal status and
// releases waiters. Only the first call has an effect.
func (j *Job) Finish(out Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return
	}

	out.JobID = j.ID
	out.Source = j.request.Source
	j.outcome = out
	if out.OK() {
		j.Status = StatusCompleted
		j.Phase = "done"
		j.Progress.Title = out.Result.Title
		j.Progress.Chapters = out.Result.Chapters
		j.Progress.Images = out.Result.Images
		j.Progress.Cover = out.Result.Cover
		j.Progress.Output = out.Result.Output
	} else {
		j.Status = StatusFailed
		j.Progress.Failure = string(out.Kind)
		j.errors = append(j.errors, out.Err.Error())
		j.Progress.Errors = j.errors
	}
	j.UpdatedAt = time.Now()
	close(j.done)
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-j.done:
		return j.Outcome(), nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Outcome returns the recorded outcome; zero until the job finishes.
func (j *Job) Outcome() Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outcome
}

// OutputPath returns the written archive of a completed job.
func (j *Job) OutputPath() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Progress.Output, j.Status == StatusCompleted
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	c *cache.Cache
}

// NewJobStore creates a store whose entries expire ttl after their last
// Put. onEvict, when set, runs for every job that leaves the store.
func NewJobStore(ttl time.Duration, onEvict func(*Job)) *JobStore {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	c := cache.New(ttl, cleanup)
	if onEvict != nil {
		c.OnEvicted(func(_ string, v interface{}) {
			if job, ok := v.(*Job); ok {
				onEvict(job)
			}
		})
	}
	return &JobStore{c: c}
}

// Put stores job and restarts its expiry.
func (s *JobStore) Put(job *Job) {
	s.c.Set(job.ID, job, cache.DefaultExpiration)
}

func (s *JobStore) Get(id string) *Job {
	v, ok := s.c.Get(id)
	if !ok {
		return nil
	}
	return v.(*Job)
}

// Delete removes a job immediately, running the eviction hook.
func (s *JobStore) Delete(id string) {
	s.c.Delete(id)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.c.DeleteExpired()
}

// Len returns the number of stored jobs, expired ones included until the
// next cleanup.
func (s *JobStore) Len() int {
	return s.c.ItemCount()
}
