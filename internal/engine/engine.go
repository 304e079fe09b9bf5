// Package engine owns the event index, the playback clock and the highlight
// queue, and serializes every trigger that mutates them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/eventscope/internal/clock"
	"github.com/user/eventscope/internal/highlight"
	"github.com/user/eventscope/internal/index"
	"github.com/user/eventscope/internal/normalize"
	"github.com/user/eventscope/internal/scheduler"
	"github.com/user/eventscope/internal/types"
	"github.com/user/eventscope/internal/view"
)

// Stats is a point-in-time summary of engine state.
type Stats struct {
	Events          int    `json:"events"`
	TimeBuckets     int    `json:"time_buckets"`
	LocationBuckets int    `json:"location_buckets"`
	Highlights      int    `json:"highlights"`
	Position        int64  `json:"position"`
	MinDate         int64  `json:"min_date"`
	State           string `json:"state"`
}

// Engine is safe for concurrent use. Every public mutation runs to
// completion under one mutex, so stream batches, ticks, sweeps and drags
// never interleave.
type Engine struct {
	opts       Options
	normalizer *normalize.Normalizer

	mu         sync.Mutex
	index      *index.Index
	clock      *clock.Clock
	highlights *highlight.Queue
	timers     map[*time.Timer]struct{}
	sched      *scheduler.Scheduler
	stopped    bool
	done       chan struct{}
	stopOnce   sync.Once
}

// ErrStarted is returned by Start on an engine that was already started or
// stopped.
var ErrStarted = errors.New("engine already started")

// New creates an Engine. Call Start to begin autoplay and cleanup.
func New(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}
	return &Engine{
		opts:       opts,
		normalizer: normalize.New(opts.Rules, opts.Geo),
		index:      index.New(),
		clock:      clock.New(opts.Retention, clock.WithNow(opts.Now)),
		highlights: highlight.New(opts.FadeDuration),
		timers:     make(map[*time.Timer]struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start schedules the autoplay tick and the cleanup sweep. The engine stops
// when ctx is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched != nil || e.stopped {
		return ErrStarted
	}

	sched := scheduler.New()
	if err := sched.Every("autoplay", e.opts.AutoplayInterval, e.tickJob); err != nil {
		return err
	}
	if err := sched.Every("cleanup", e.opts.CleanupInterval, e.sweepJob); err != nil {
		return err
	}

	e.sched = sched
	sched.Start()
	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-e.done:
		}
	}()
	return nil
}

func (e *Engine) tickJob()  { e.Tick() }
func (e *Engine) sweepJob() { e.Sweep() }

// Stop cancels both interval jobs and any pending fade timers.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		sched := e.sched
		e.stopped = true
		e.mu.Unlock()
		close(e.done)

		// jobs take e.mu, so wait for them without holding it
		if sched != nil {
			sched.Stop()
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		for t := range e.timers {
			t.Stop()
		}
		clear(e.timers)
	})
}

// Ingest normalizes and indexes one inbound batch and returns how many
// events were admitted. Rejected events are logged at debug and dropped.
func (e *Engine) Ingest(batch []types.RawEvent) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	minDate := e.clock.MinDate()
	admitted := 0
	for _, raw := range batch {
		ev, err := e.normalizer.Normalize(raw, e.opts.Filters, minDate)
		if err != nil {
			var rej *normalize.RejectionError
			if errors.As(err, &rej) {
				slog.Debug("event rejected", "reason", rej.Reason, "type", rej.Type, "topic", rej.Topic)
				if e.opts.Metrics != nil {
					e.opts.Metrics.Rejected(string(rej.Reason))
				}
			}
			continue
		}
		e.index.Insert(ev)
		admitted++
	}

	if admitted > 0 {
		if e.opts.Metrics != nil {
			e.opts.Metrics.Admitted(admitted)
		}
		e.recordIndex()
		e.publish()
	}
	return admitted
}

// Sweep evicts events older than the retention window, drops them from the
// highlight queue by identity, expires overdue highlights and returns the
// evicted events.
func (e *Engine) Sweep() []*types.Event {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	minDate := e.clock.MinDate()
	removed := e.index.Evict(minDate)

	before := e.clock.Position()
	e.clock.Clamp()
	moved := before != e.clock.Position()

	if len(removed) > 0 {
		ids := make(map[types.EventID]struct{}, len(removed))
		for _, ev := range removed {
			ids[ev.ID] = struct{}{}
		}
		e.highlights.Remove(ids)
		slog.Info("evicted expired events", "count", len(removed), "min_date", time.UnixMilli(minDate).UTC())
	}
	// backstop for fades whose timer never ran, e.g. after a long pause
	expired := e.highlights.ExpireDue(e.opts.Now())

	if e.opts.Metrics != nil {
		e.opts.Metrics.Evicted(len(removed))
		e.opts.Metrics.SweepSeconds(time.Since(start).Seconds())
		e.opts.Metrics.Highlights(e.highlights.Len())
	}
	e.recordIndex()
	if len(removed) > 0 || len(expired) > 0 || moved {
		e.publish()
	}
	return removed
}

// Tick advances the clock one step unless the user is dragging.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.clock.Tick() {
		e.publish()
	}
}

// BeginDrag hands the clock to the user.
func (e *Engine) BeginDrag() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.BeginDrag()
	e.publish()
}

// Drag moves the clock while dragging. Returns false if not dragging.
func (e *Engine) Drag(ts int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.clock.Drag(ts) {
		return false
	}
	e.publish()
	return true
}

// EndDrag resumes playback from the minute containing ts.
func (e *Engine) EndDrag(ts int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.EndDrag(ts)
	e.publish()
}

// ClickLocation highlights the event at location nearest to the clock
// position. The highlight fades after the configured duration.
func (e *Engine) ClickLocation(location string) (*types.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok := view.Nearest(e.index, location, e.clock.Position())
	if !ok {
		return nil, false
	}
	entry := e.highlights.Add(ev, e.opts.Now())

	var t *time.Timer
	t = time.AfterFunc(e.highlights.Fade(), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.timers, t)
		if e.highlights.Drop(entry) {
			e.afterHighlightChange()
		}
	})
	e.timers[t] = struct{}{}

	e.afterHighlightChange()
	return ev, true
}

// ExpireHighlights drops highlights due at or before now.
func (e *Engine) ExpireHighlights(now time.Time) []highlight.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	due := e.highlights.ExpireDue(now)
	if len(due) > 0 {
		e.afterHighlightChange()
	}
	return due
}

// Highlights returns the live highlight entries, oldest first.
func (e *Engine) Highlights() []highlight.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.highlights.Entries()
}

// View projects the index at the current clock position.
func (e *Engine) View() view.View {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.project()
}

// Stats summarizes the current state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	times, locs := e.index.Buckets()
	return Stats{
		Events:          e.index.Len(),
		TimeBuckets:     times,
		LocationBuckets: locs,
		Highlights:      e.highlights.Len(),
		Position:        e.clock.Position(),
		MinDate:         e.clock.MinDate(),
		State:           e.clock.State().String(),
	}
}

// MinDate is the current retention floor in Unix ms.
func (e *Engine) MinDate() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.clock.MinDate()
}

// ReportTransportError surfaces a feed failure to the operator. The engine
// does not reconnect.
func (e *Engine) ReportTransportError(err error) {
	if err == nil {
		return
	}
	source := "unknown"
	var te *types.TransportError
	if errors.As(err, &te) {
		source = te.Source
	}
	slog.Error("transport error", "source", source, "error", err)
	if e.opts.Metrics != nil {
		e.opts.Metrics.TransportError(source)
	}
	if e.opts.Alert != nil {
		e.opts.Alert(fmt.Sprintf("eventscope: %v", err))
	}
}

// project must be called with e.mu held.
func (e *Engine) project() view.View {
	v := view.Project(e.index, e.opts.Geo, e.clock.Position())
	v.Dragging = e.clock.Overridden()
	for _, h := range e.highlights.Entries() {
		v.Highlighted = append(v.Highlighted, h.Event)
	}
	return v
}

// publish must be called with e.mu held so views go out in mutation order.
func (e *Engine) publish() {
	if e.opts.Metrics != nil {
		lag := e.opts.Now().Sub(time.UnixMilli(e.clock.Position()))
		e.opts.Metrics.ClockLag(lag.Seconds())
	}
	if e.opts.Publisher != nil {
		e.opts.Publisher.Publish(e.project())
	}
}

func (e *Engine) afterHighlightChange() {
	if e.opts.Metrics != nil {
		e.opts.Metrics.Highlights(e.highlights.Len())
	}
	e.publish()
}

func (e *Engine) recordIndex() {
	if e.opts.Metrics == nil {
		return
	}
	times, locs := e.index.Buckets()
	e.opts.Metrics.IndexSize(e.index.Len(), times, locs)
}
