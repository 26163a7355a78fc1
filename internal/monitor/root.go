package monitor

import (
	"context"
	"sync"

	"github.com/mltrain/trainwatch/pkg/models"
)

// View is everything the UI renders at one instant.
type View struct {
	Jobs            []models.JobSummary `json:"jobs"`
	DirectoryLoaded bool                `json:"directory_loaded"`
	SelectedJobID   string              `json:"selected_job_id,omitempty"`
	Selection       models.Selection    `json:"selection"`
}

// Root owns the selection state and forwards directory selection changes
// to the inspector.
type Root struct {
	dir  *Directory
	insp *Inspector

	mu       sync.RWMutex
	selected string
}

// NewRoot wires dir's selection output to insp.
func NewRoot(dir *Directory, insp *Inspector) *Root {
	r := &Root{dir: dir, insp: insp}
	dir.OnSelect(r.selectionChanged)
	return r
}

// Mount loads the directory in the background and runs the inspector
// until ctx is done. A directory failure is not fatal.
func (r *Root) Mount(ctx context.Context) error {
	go func() { _ = r.dir.Load(ctx) }()
	return r.insp.Run(ctx)
}

func (r *Root) Select(jobID string) error {
	return r.dir.Select(jobID)
}

func (r *Root) Deselect() {
	r.dir.Deselect()
}

func (r *Root) SelectedJobID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

func (r *Root) Jobs() []models.JobSummary {
	return r.dir.Jobs()
}

func (r *Root) Selection() models.Selection {
	return r.insp.View()
}

func (r *Root) Subscribe() (<-chan models.Selection, func()) {
	return r.insp.Subscribe()
}

func (r *Root) View() View {
	return View{
		Jobs:            r.dir.Jobs(),
		DirectoryLoaded: r.dir.Loaded(),
		SelectedJobID:   r.SelectedJobID(),
		Selection:       r.insp.View(),
	}
}

func (r *Root) selectionChanged(jobID string) {
	r.mu.Lock()
	r.selected = jobID
	r.mu.Unlock()

	if jobID == "" {
		r.insp.Deselect()
		return
	}
	_ = r.insp.Select(jobID)
}
