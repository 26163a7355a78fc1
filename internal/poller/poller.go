// Package poller runs the interval-driven metrics fetch loop for one job.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mltrain/trainwatch/pkg/models"
)

// StarvationWarnAfter is how many results in a row may be superseded
// before the poller warns that fetches outlast the interval.
const StarvationWarnAfter = 5

var (
	ErrAlreadyStarted  = errors.New("poller already started")
	ErrStopped         = errors.New("poller stopped")
	ErrInvalidInterval = errors.New("poll interval must be positive")
)

// FetchFunc fetches the full metrics snapshot for a job.
type FetchFunc func(ctx context.Context, jobID string) (models.MetricsSnapshot, error)

// Poller fetches a job's metrics immediately and then on every interval
// tick. It is single use: once stopped it cannot be started again.
//
// Every tick takes a new sequence number. A fetch result is delivered only
// if the poller is still live and its sequence number is the latest one
// issued, so a slow fetch can never overwrite a newer tick's result and
// nothing is delivered after Stop returns. Callbacks run one at a time and
// must not call Stop on the same Poller.
type Poller struct {
	id     uuid.UUID
	fetch  FetchFunc
	logger *slog.Logger

	mu         sync.Mutex
	started    bool
	live       bool
	seq        uint64
	// superseded counts results dropped in a row for a newer tick.
	superseded int
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates an idle Poller.
func New(fetch FetchFunc) *Poller {
	id := uuid.New()
	return &Poller{
		id:     id,
		fetch:  fetch,
		logger: slog.Default().With("poller_id", id.String()),
		done:   make(chan struct{}),
	}
}

// ID identifies this poller instance in logs.
func (p *Poller) ID() uuid.UUID {
	return p.id
}

// Start begins polling jobID. The first fetch is issued before Start returns.
func (p *Poller) Start(jobID string, interval time.Duration, onSnapshot func(models.MetricsSnapshot), onError func(error)) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		if !p.live {
			return ErrStopped
		}
		return ErrAlreadyStarted
	}
	p.started = true
	p.live = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.logger = p.logger.With("job_id", jobID)

	p.issueLocked(ctx, jobID, onSnapshot, onError)
	go p.run(ctx, jobID, interval, onSnapshot, onError)

	p.logger.Debug("poller started", "interval", interval.String())
	return nil
}

// Stop cancels the timer and any in-flight fetches. After Stop returns no
// callback fires for this poller. Stop is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.started = true
		p.mu.Unlock()
		close(p.done)
		return
	}
	if !p.live {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.live = false
	p.cancel()
	p.mu.Unlock()

	<-p.done
	p.logger.Debug("poller stopped")
}

// Superseded reports how many results in a row were dropped because a
// newer tick had been issued. It resets on every delivered result.
func (p *Poller) Superseded() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.superseded
}

// Live reports whether the poller is running.
func (p *Poller) Live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

func (p *Poller) run(ctx context.Context, jobID string, interval time.Duration, onSnapshot func(models.MetricsSnapshot), onError func(error)) {
	defer close(p.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.live {
				p.issueLocked(ctx, jobID, onSnapshot, onError)
			}
			p.mu.Unlock()
		}
	}
}

// issueLocked starts one fetch cycle. p.mu must be held.
func (p *Poller) issueLocked(ctx context.Context, jobID string, onSnapshot func(models.MetricsSnapshot), onError func(error)) {
	p.seq++
	seq := p.seq

	go func() {
		snap, err := p.fetch(ctx, jobID)

		p.mu.Lock()
		defer p.mu.Unlock()

		if !p.live {
			p.logger.Debug("dropping result after stop", "seq", seq)
			return
		}
		if seq != p.seq {
			p.superseded++
			p.logger.Debug("dropping superseded result", "seq", seq, "latest", p.seq, "in_a_row", p.superseded)
			if p.superseded == StarvationWarnAfter {
				p.logger.Warn("metrics fetches keep outlasting the poll interval; nothing delivered",
					"superseded", p.superseded, "latest", p.seq)
			}
			return
		}
		p.superseded = 0

		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onSnapshot != nil {
			onSnapshot(snap)
		}
	}()
}
