package cleanup

import (
	"log/slog"
	"sync"
)

type Job struct {
	Name string
	F    func() error
}

// Registry runs registered jobs in reverse registration order, so resources
// are released before the things they depend on.
type Registry struct {
	mu   sync.Mutex
	jobs []*Job
	done bool
}

func New() *Registry {
	return &Registry{}
}

func (r *Registry) Register(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, j)
}

// CleanUp runs every job once. Later calls do nothing.
func (r *Registry) CleanUp() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	jobs := r.jobs
	r.jobs = nil
	r.mu.Unlock()

	for i := len(jobs) - 1; i >= 0; i-- {
		j := jobs[i]
		slog.Info("cleanup job started", slog.String("job", j.Name))
		if err := j.F(); err != nil {
			slog.Error("cleanup job finished with error", slog.String("job", j.Name), slog.String("error", err.Error()))
			continue
		}
		slog.Info("cleaned", slog.String("job", j.Name))
	}
}
