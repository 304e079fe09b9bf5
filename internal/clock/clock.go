// Package clock implements the playback clock: an auto-advancing position
// that a user can grab and drag.
package clock

import (
	"time"

	"github.com/user/eventscope/internal/types"
)

// State is the clock's playback mode.
type State int

const (
	Playing State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "playing"
}

// Clock is not safe for concurrent use; the engine serializes access.
type Clock struct {
	position  int64
	state     State
	retention time.Duration
	step      time.Duration
	now       func() time.Time
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow overrides the wall clock.
func WithNow(fn func() time.Time) Option {
	return func(c *Clock) { c.now = fn }
}

// WithStep sets how far one tick advances. Default one minute.
func WithStep(d time.Duration) Option {
	return func(c *Clock) { c.step = d }
}

// New creates a playing Clock positioned at the earliest retained time.
func New(retention time.Duration, opts ...Option) *Clock {
	c := &Clock{
		retention: retention,
		step:      time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.position = c.MinDate()
	return c
}

// MinDate is the retention floor in Unix ms.
func (c *Clock) MinDate() int64 {
	return types.Millis(c.now().Add(-c.retention))
}

// Tick advances one step, never past now. It is a no-op while dragging.
func (c *Clock) Tick() bool {
	if c.state == Dragging {
		return false
	}
	now := types.Millis(c.now())
	next := c.position + c.step.Milliseconds()
	if next > now {
		next = now
	}
	c.position = c.clamp(next)
	return true
}

// BeginDrag hands control of the position to the user.
func (c *Clock) BeginDrag() {
	c.state = Dragging
}

// Drag moves the position while dragging. Positions are clamped to
// [MinDate, now] but not minute-aligned.
func (c *Clock) Drag(ts int64) bool {
	if c.state != Dragging {
		return false
	}
	c.position = c.clamp(ts)
	return true
}

// EndDrag resumes playback from the minute containing ts. A minute that
// starts before MinDate is replaced by the next one so the position stays
// inside the window.
func (c *Clock) EndDrag(ts int64) {
	c.state = Playing
	pos := types.MinuteFloor(c.clamp(ts))
	if pos < c.MinDate() {
		pos += types.MinuteMillis
	}
	if now := types.Millis(c.now()); pos > now {
		pos = now
	}
	c.position = pos
}

// Clamp pulls the position back inside [MinDate, now], e.g. after the
// retention floor has moved.
func (c *Clock) Clamp() {
	c.position = c.clamp(c.position)
}

func (c *Clock) clamp(ts int64) int64 {
	if now := types.Millis(c.now()); ts > now {
		return now
	}
	if floor := c.MinDate(); ts < floor {
		return floor
	}
	return ts
}

// Position returns the raw position in Unix ms.
func (c *Clock) Position() int64 {
	return c.position
}

// TimeKey returns the minute bucket of the position.
func (c *Clock) TimeKey() int64 {
	return types.MinuteFloor(c.position)
}

// State returns the playback mode.
func (c *Clock) State() State {
	return c.state
}

// Overridden reports whether the user is dragging.
func (c *Clock) Overridden() bool {
	return c.state == Dragging
}
