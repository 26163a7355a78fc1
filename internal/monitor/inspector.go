package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mltrain/trainwatch/internal/cache"
	"github.com/mltrain/trainwatch/internal/poller"
	"github.com/mltrain/trainwatch/pkg/align"
	"github.com/mltrain/trainwatch/pkg/models"
)

const (
	DefaultPollInterval = 3 * time.Second
	storeTimeout        = 5 * time.Second
)

var ErrAlreadyRunning = errors.New("inspector already running")

// JobSource is the part of the orchestrator client the inspector needs.
type JobSource interface {
	GetJob(ctx context.Context, jobID string) (*models.JobDetail, error)
	GetMetrics(ctx context.Context, jobID string) (models.MetricsSnapshot, error)
}

// InspectorConfig tunes an Inspector.
type InspectorConfig struct {
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Series is the declared metric order used for chart columns and
	// backbone tie-breaks.
	Series []string
}

// Inspector runs the selection lifecycle for a single job:
//
//	Idle -> Loading(id) -> Active(id) -> Idle
//	Active(a) -> Loading(b)
//
// All state lives on one event-loop goroutine (Run). Network fetches and
// poll ticks happen elsewhere and post their results back to the loop,
// where they are checked against the current selection before they are
// applied. A result for a superseded selection is dropped.
type Inspector struct {
	id       uuid.UUID
	source   JobSource
	store    cache.Cache
	interval time.Duration
	series   []string
	running  atomic.Bool

	qmu   sync.Mutex
	queue []func(ctx context.Context)
	wake  chan struct{}

	// Loop-owned state. Only touched from handlers run by Run.
	phase   models.Phase
	jobID   string
	gen     uint64
	detail  *models.JobDetail
	columns []string
	rows    []models.ChartRow
	lastErr string
	active  *poller.Poller

	pmu     sync.RWMutex
	view    models.Selection
	subs    map[int]chan models.Selection
	nextSub int
}

// NewInspector creates an idle Inspector. Call Run to start processing.
func NewInspector(source JobSource, store cache.Cache, cfg InspectorConfig) *Inspector {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	id := uuid.New()
	i := &Inspector{
		id:       id,
		source:   source,
		store:    cache.Scoped(store, id),
		interval: interval,
		series:   append([]string(nil), cfg.Series...),
		wake:     make(chan struct{}, 1),
		phase:    models.PhaseIdle,
		subs:     make(map[int]chan models.Selection),
	}
	i.view = i.snapshot()
	return i
}

// ID identifies this inspector's entries in the shared store.
func (i *Inspector) ID() uuid.UUID { return i.id }

// Select switches the inspector to jobID. Any previous poller is stopped
// and its stored metrics cleared before the detail fetch for jobID starts.
func (i *Inspector) Select(jobID string) error {
	if jobID == "" {
		return ErrEmptyJobID
	}
	i.post(func(ctx context.Context) { i.handleSelect(ctx, jobID) })
	return nil
}

// Deselect stops polling, clears the store and returns to Idle.
func (i *Inspector) Deselect() {
	i.post(i.handleDeselect)
}

// View returns the most recently published selection.
func (i *Inspector) View() models.Selection {
	i.pmu.RLock()
	defer i.pmu.RUnlock()
	return i.view
}

// Subscribe returns a channel that always holds the latest published
// selection. Slow readers skip intermediate values. Call the returned func
// to unsubscribe.
func (i *Inspector) Subscribe() (<-chan models.Selection, func()) {
	ch := make(chan models.Selection, 1)

	i.pmu.Lock()
	id := i.nextSub
	i.nextSub++
	i.subs[id] = ch
	ch <- i.view
	i.pmu.Unlock()

	return ch, func() {
		i.pmu.Lock()
		delete(i.subs, id)
		i.pmu.Unlock()
	}
}

// Run processes selection events until ctx is done. On exit it stops the
// poller and clears the stored snapshot.
func (i *Inspector) Run(ctx context.Context) error {
	if !i.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	for {
		select {
		case <-ctx.Done():
			i.teardown()
			return nil
		case <-i.wake:
			for _, fn := range i.drain() {
				fn(ctx)
			}
		}
	}
}

func (i *Inspector) post(fn func(ctx context.Context)) {
	i.qmu.Lock()
	i.queue = append(i.queue, fn)
	i.qmu.Unlock()

	select {
	case i.wake <- struct{}{}:
	default:
	}
}

func (i *Inspector) drain() []func(ctx context.Context) {
	i.qmu.Lock()
	defer i.qmu.Unlock()
	q := i.queue
	i.queue = nil
	return q
}

// --- loop handlers ---

func (i *Inspector) handleSelect(ctx context.Context, jobID string) {
	i.release(ctx)

	i.gen++
	gen := i.gen
	i.phase = models.PhaseLoading
	i.jobID = jobID
	i.publish()

	slog.Info("job selected", "job_id", jobID)

	go func() {
		detail, err := i.source.GetJob(ctx, jobID)
		i.post(func(ctx context.Context) { i.handleDetail(ctx, gen, jobID, detail, err) })
	}()
}

func (i *Inspector) handleDetail(_ context.Context, gen uint64, jobID string, detail *models.JobDetail, err error) {
	if gen != i.gen || i.phase != models.PhaseLoading || jobID != i.jobID {
		slog.Debug("discarding stale job detail", "job_id", jobID, "current_job_id", i.jobID)
		return
	}

	if err == nil && detail == nil {
		err = errors.New("empty job detail")
	}
	if err == nil && detail.ID != "" && detail.ID != jobID {
		err = fmt.Errorf("job detail id %q does not match selection", detail.ID)
	}
	if err != nil {
		slog.Error("job detail fetch failed", "job_id", jobID, "error", err)
		i.lastErr = err.Error()
		i.publish()
		return
	}
	detail.ID = jobID

	p := poller.New(i.source.GetMetrics)
	err = p.Start(jobID, i.interval,
		func(snap models.MetricsSnapshot) {
			i.post(func(ctx context.Context) { i.handleSnapshot(ctx, p, gen, snap) })
		},
		func(err error) {
			i.post(func(ctx context.Context) { i.handlePollError(p, gen, err) })
		},
	)
	if err != nil {
		slog.Error("start poller", "job_id", jobID, "error", err)
		i.lastErr = err.Error()
		i.publish()
		return
	}

	i.active = p
	i.phase = models.PhaseActive
	i.detail = detail
	i.publish()

	slog.Info("job active", "job_id", jobID, "status", detail.Status, "poller_id", p.ID().String())
}

func (i *Inspector) handleSnapshot(ctx context.Context, p *poller.Poller, gen uint64, snap models.MetricsSnapshot) {
	if !i.current(p, gen) {
		return
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	// The chart always follows the delivered snapshot; the store is written,
	// never read back.
	if err := i.store.Set(sctx, i.jobID, snap); err != nil {
		slog.Warn("store metrics snapshot", "job_id", i.jobID, "inspector_id", i.id.String(), "error", err)
	}

	i.columns = align.Columns(snap, i.series)
	i.rows = align.Align(snap, i.series)
	i.lastErr = ""
	i.publish()
}

func (i *Inspector) handlePollError(p *poller.Poller, gen uint64, err error) {
	if !i.current(p, gen) {
		return
	}
	// The last good rows stay visible; the next tick retries.
	slog.Warn("metrics poll failed", "job_id", i.jobID, "poller_id", p.ID().String(), "error", err)
	i.lastErr = err.Error()
	i.publish()
}

func (i *Inspector) handleDeselect(ctx context.Context) {
	if i.phase == models.PhaseIdle {
		return
	}
	prev := i.jobID
	i.release(ctx)
	i.gen++
	i.publish()

	slog.Info("job deselected", "job_id", prev)
}

func (i *Inspector) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	i.release(ctx)
	i.gen++
	i.publish()
}

// release stops the active poller, clears the stored snapshot of the
// current job and resets to Idle.
func (i *Inspector) release(ctx context.Context) {
	if i.active != nil {
		i.active.Stop()
		i.active = nil
	}
	if i.jobID != "" {
		if err := i.store.Clear(ctx, i.jobID); err != nil {
			slog.Warn("clear metrics snapshot", "job_id", i.jobID, "inspector_id", i.id.String(), "error", err)
		}
	}

	i.phase = models.PhaseIdle
	i.jobID = ""
	i.detail = nil
	i.columns = nil
	i.rows = nil
	i.lastErr = ""
}

func (i *Inspector) current(p *poller.Poller, gen uint64) bool {
	return p == i.active && gen == i.gen && i.phase == models.PhaseActive
}

func (i *Inspector) snapshot() models.Selection {
	cols := i.columns
	if cols == nil {
		cols = []string{}
	}
	rows := i.rows
	if rows == nil {
		rows = []models.ChartRow{}
	}
	return models.Selection{
		Phase:     i.phase,
		JobID:     i.jobID,
		Detail:    i.detail,
		Columns:   cols,
		Rows:      rows,
		LastError: i.lastErr,
		UpdatedAt: time.Now().UTC(),
	}
}

// publish recomputes the selection view and hands it to subscribers.
func (i *Inspector) publish() {
	v := i.snapshot()

	i.pmu.Lock()
	defer i.pmu.Unlock()
	i.view = v
	for _, ch := range i.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
