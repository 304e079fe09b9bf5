// Package highlight keeps recently clicked events until they fade out.
package highlight

import (
	"slices"
	"time"

	"github.com/user/eventscope/internal/types"
)

// Entry is a highlighted event and the time it fades.
type Entry struct {
	Event    *types.Event `json:"event"`
	ExpireAt time.Time    `json:"expireAt"`
}

// Queue is a FIFO of highlights. Not safe for concurrent use.
type Queue struct {
	fade    time.Duration
	entries []Entry
}

// New creates a Queue whose entries live for fade.
func New(fade time.Duration) *Queue {
	return &Queue{fade: fade}
}

// Fade returns the entry lifetime.
func (q *Queue) Fade() time.Duration {
	return q.fade
}

// Add appends ev, expiring at now+fade.
func (q *Queue) Add(ev *types.Event, now time.Time) Entry {
	e := Entry{Event: ev, ExpireAt: now.Add(q.fade)}
	q.entries = append(q.entries, e)
	return e
}

// PopFront drops the oldest entry. Callers arm one timer per Add and pop
// when it fires.
func (q *Queue) PopFront() (Entry, bool) {
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := q.entries[0]
	q.entries[0] = Entry{}
	q.entries = q.entries[1:]
	return e, true
}

// ExpireDue pops front entries whose expiry is at or before now, oldest first.
func (q *Queue) ExpireDue(now time.Time) []Entry {
	var out []Entry
	for len(q.entries) > 0 && !q.entries[0].ExpireAt.After(now) {
		e, _ := q.PopFront()
		out = append(out, e)
	}
	return out
}

// Drop removes the first entry equal to e. A fade timer armed for e calls
// this so that an entry already removed by eviction is not popped twice.
func (q *Queue) Drop(e Entry) bool {
	for i, cur := range q.entries {
		if cur.Event.ID == e.Event.ID && cur.ExpireAt.Equal(e.ExpireAt) {
			q.entries = slices.Delete(q.entries, i, i+1)
			return true
		}
	}
	return false
}

// Remove drops entries whose event ID is in ids and returns how many went.
func (q *Queue) Remove(ids map[types.EventID]struct{}) int {
	before := len(q.entries)
	q.entries = slices.DeleteFunc(q.entries, func(e Entry) bool {
		_, ok := ids[e.Event.ID]
		return ok
	})
	return before - len(q.entries)
}

// Entries returns a copy of the queue, oldest first.
func (q *Queue) Entries() []Entry {
	return slices.Clone(q.entries)
}

// Len returns the number of live entries.
func (q *Queue) Len() int {
	return len(q.entries)
}
