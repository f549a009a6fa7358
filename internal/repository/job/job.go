package job

import (
	"log/slog"
	"sync"

	"github.com/mediagrab/mediagrab/internal/entity"
)

// jobRepository is the shared job table. It lives for the whole process and
// never evicts: the status endpoint must keep answering for finished jobs.
// One RWMutex around the map is enough for the expected load.
type jobRepository struct {
	mu   sync.RWMutex
	jobs map[string]entity.Job
	log  *slog.Logger
}

func NewJobRepository(log *slog.Logger) *jobRepository {
	return &jobRepository{
		jobs: make(map[string]entity.Job),
		log:  log.With(slog.String("item", "JobRepository")),
	}
}

// Create inserts the initial record for a fresh id. It runs before the
// owning background unit is launched, so the first status poll already
// sees the job.
func (r *jobRepository) Create(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[id] = entity.Job{
		ID:       id,
		Status:   entity.StatusStarting,
		Progress: "0%",
		Speed:    "N/A",
	}

	r.log.Debug("Job created", slog.String("id", id))
}

// Update replaces the whole record. Fields absent from the new record are
// gone after the call; a finished record carries no speed. That mirrors
// the per-event overwrite the progress hooks have always done.
func (r *jobRepository) Update(id string, job entity.Job) {
	job.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[id] = job
}

// Get never fails. Unknown ids come back as a not_found sentinel record.
func (r *jobRepository) Get(id string) entity.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return entity.Job{Status: entity.StatusNotFound}
	}

	return job
}

func (r *jobRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.jobs)
}
