// Package monitor holds the job directory, the job inspector and the view
// root that wires them together.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mltrain/trainwatch/internal/orchestrator"
	"github.com/mltrain/trainwatch/pkg/models"
)

// ErrEmptyJobID is returned when selecting without a job id.
var ErrEmptyJobID = errors.New("job id is required")

// JobLister is the part of the orchestrator client the directory needs.
type JobLister interface {
	ListJobs(ctx context.Context, opts orchestrator.ListOptions) ([]models.JobSummary, error)
}

// Directory is the fetch-once list of job summaries plus the single
// selection made from it. It does not poll.
type Directory struct {
	source JobLister
	opts   orchestrator.ListOptions

	// selMu orders selection changes so callbacks see them in the order
	// they were recorded.
	selMu sync.Mutex

	mu       sync.RWMutex
	fetched  bool
	loaded   bool
	jobs     []models.JobSummary
	selected string
	onSelect func(jobID string)
}

// NewDirectory creates a Directory backed by source.
func NewDirectory(source JobLister, opts orchestrator.ListOptions) *Directory {
	return &Directory{
		source: source,
		opts:   opts,
		jobs:   []models.JobSummary{},
	}
}

// OnSelect registers the callback that reports selection changes upward.
// An empty id means the selection was cleared.
func (d *Directory) OnSelect(fn func(jobID string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSelect = fn
}

// Load fetches the job list. Only the first call fetches; a failure is
// logged and leaves the list empty with no retry.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.fetched {
		d.mu.Unlock()
		return nil
	}
	d.fetched = true
	d.mu.Unlock()

	jobs, err := d.source.ListJobs(ctx, d.opts)
	if err != nil {
		slog.Error("job directory fetch failed", "error", err)
		return err
	}

	d.mu.Lock()
	d.jobs = jobs
	d.loaded = true
	d.mu.Unlock()

	slog.Info("job directory loaded", "jobs", len(jobs))
	return nil
}

// Jobs returns a copy of the job list.
func (d *Directory) Jobs() []models.JobSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.JobSummary{}, d.jobs...)
}

// Loaded reports whether the list was fetched successfully.
func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Lookup finds a job in the list by id.
func (d *Directory) Lookup(jobID string) (models.JobSummary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, j := range d.jobs {
		if j.ID == jobID {
			return j, true
		}
	}
	return models.JobSummary{}, false
}

func (d *Directory) Selected() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected
}

// Select marks jobID as selected and reports it. The id does not have to be
// in the list: the list may have failed to load.
func (d *Directory) Select(jobID string) error {
	if jobID == "" {
		return ErrEmptyJobID
	}
	d.setSelected(jobID)
	return nil
}

// Deselect clears the selection and reports it.
func (d *Directory) Deselect() {
	d.setSelected("")
}

func (d *Directory) setSelected(jobID string) {
	d.selMu.Lock()
	defer d.selMu.Unlock()

	d.mu.Lock()
	d.selected = jobID
	fn := d.onSelect
	d.mu.Unlock()

	if fn != nil {
		fn(jobID)
	}
}
