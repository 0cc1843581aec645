package memory

import (
	"context"
	"sync"
	"time"

	"github.com/newzify/newzify/internal/domain/job"
)

// JobsRepo is the in-memory counterpart of the postgres outbox, enough for
// worker tests: claim ordering by run_at, attempt counting, terminal states.
type JobsRepo struct {
	mu   sync.Mutex
	jobs map[string]*job.Job
}

func NewJobsRepo() *JobsRepo {
	return &JobsRepo{
		jobs: make(map[string]*job.Job),
	}
}

func (r *JobsRepo) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	r.mu.Lock()
	r.jobs[j.ID] = &j
	r.mu.Unlock()

	return j, nil
}

func (r *JobsRepo) ClaimNext(_ context.Context, workerID string) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	var next *job.Job

	for _, j := range r.jobs {
		if j.Status != job.StatusPending || j.RunAt.After(now) || j.Attempts >= j.MaxAttempts {
			continue
		}
		if next == nil || j.RunAt.Before(next.RunAt) {
			next = j
		}
	}

	if next == nil {
		return job.Job{}, job.ErrNotFound
	}

	next.Status = job.StatusProcessing
	next.LockedAt = &now
	next.LockedBy = &workerID
	next.UpdatedAt = now

	return *next, nil
}

func (r *JobsRepo) MarkDone(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]

	if !ok {
		return job.ErrNotFound
	}

	j.Status = job.StatusDone
	j.LockedAt = nil
	j.LockedBy = nil
	j.LastError = nil
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *JobsRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]

	if !ok {
		return job.ErrNotFound
	}

	j.Status = job.StatusFailed
	j.LockedAt = nil
	j.LockedBy = nil
	j.LastError = &errMsg
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *JobsRepo) Reschedule(_ context.Context, id string, runAt time.Time, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]

	if !ok {
		return job.ErrNotFound
	}

	j.Status = job.StatusPending
	j.Attempts++
	j.RunAt = runAt
	j.LockedAt = nil
	j.LockedBy = nil
	j.LastError = &errMsg
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Get returns a snapshot for test assertions.
func (r *JobsRepo) Get(id string) (job.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]

	if !ok {
		return job.Job{}, false
	}

	return *j, true
}
