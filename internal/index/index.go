// Package index keeps admitted events in two synchronized views: by minute
// bucket and by location.
package index

import (
	"slices"

	"github.com/user/eventscope/internal/types"
)

// Index is not safe for concurrent use; the engine serializes access.
type Index struct {
	byTime     map[int64][]*types.Event
	byLocation map[string][]*types.Event
	size       int
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		byTime:     make(map[int64][]*types.Event),
		byLocation: make(map[string][]*types.Event),
	}
}

// Insert appends ev to its time bucket and its location bucket.
func (x *Index) Insert(ev *types.Event) {
	x.byTime[ev.TimeKey] = append(x.byTime[ev.TimeKey], ev)
	x.byLocation[ev.Location] = append(x.byLocation[ev.Location], ev)
	x.size++
}

// Evict removes every event whose TimeKey is before minDate and returns
// them in ascending bucket order. Emptied location buckets are dropped.
func (x *Index) Evict(minDate int64) []*types.Event {
	keys := x.TimeKeys()

	var removed []*types.Event
	for _, k := range keys {
		if k >= minDate {
			break
		}
		removed = append(removed, x.byTime[k]...)
		delete(x.byTime, k)
	}
	if len(removed) == 0 {
		return nil
	}

	gone := make(map[string]map[types.EventID]struct{})
	for _, ev := range removed {
		ids, ok := gone[ev.Location]
		if !ok {
			ids = make(map[types.EventID]struct{})
			gone[ev.Location] = ids
		}
		ids[ev.ID] = struct{}{}
	}
	for loc, ids := range gone {
		kept := slices.DeleteFunc(x.byLocation[loc], func(ev *types.Event) bool {
			_, drop := ids[ev.ID]
			return drop
		})
		if len(kept) == 0 {
			delete(x.byLocation, loc)
			continue
		}
		x.byLocation[loc] = kept
	}
	x.size -= len(removed)
	return removed
}

// EventsAtTime returns a copy of the bucket for timeKey, in insertion order.
func (x *Index) EventsAtTime(timeKey int64) []*types.Event {
	return slices.Clone(x.byTime[timeKey])
}

// EventsAtLocation returns a copy of the bucket for location, in insertion order.
func (x *Index) EventsAtLocation(location string) []*types.Event {
	return slices.Clone(x.byLocation[location])
}

// LocationsVisibleAt returns, sorted, every location holding at least one
// event whose TimeKey is at or before the minute of position.
func (x *Index) LocationsVisibleAt(position int64) []string {
	cutoff := types.MinuteFloor(position)
	var locs []string
	for loc, events := range x.byLocation {
		for _, ev := range events {
			if ev.TimeKey <= cutoff {
				locs = append(locs, loc)
				break
			}
		}
	}
	slices.Sort(locs)
	return locs
}

// TimeKeys returns the bucket keys in ascending order.
func (x *Index) TimeKeys() []int64 {
	keys := make([]int64, 0, len(x.byTime))
	for k := range x.byTime {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of indexed events.
func (x *Index) Len() int {
	return x.size
}

// Buckets returns the number of time and location buckets.
func (x *Index) Buckets() (times, locations int) {
	return len(x.byTime), len(x.byLocation)
}
