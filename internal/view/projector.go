// Package view derives what the map shows at a clock position.
package view

import (
	"github.com/user/eventscope/internal/geo"
	"github.com/user/eventscope/internal/types"
)

// Source is the read side of the time/location index.
type Source interface {
	EventsAtTime(timeKey int64) []*types.Event
	EventsAtLocation(location string) []*types.Event
	LocationsVisibleAt(position int64) []string
}

// View is one rendering frame.
type View struct {
	Position         int64                `json:"position"`
	TimeKey          int64                `json:"timeKey"`
	Dragging         bool                 `json:"dragging"`
	ActiveEvents     []*types.Event       `json:"activeEvents"`
	VisibleLocations []types.LocationView `json:"visibleLocations"`
	Highlighted      []*types.Event       `json:"highlighted,omitempty"`
}

// Project computes the active events and visible locations at position.
// It never mutates src.
func Project(src Source, table *geo.Table, position int64) View {
	timeKey := types.MinuteFloor(position)
	active := src.EventsAtTime(timeKey)
	if active == nil {
		active = []*types.Event{}
	}

	locs := src.LocationsVisibleAt(position)
	visible := make([]types.LocationView, 0, len(locs))
	for _, loc := range locs {
		entry, _ := table.Lookup(loc)
		visible = append(visible, types.LocationView{
			Location: loc,
			Country:  entry.Country,
			Lat:      entry.Lat,
			Lng:      entry.Lng,
		})
	}

	return View{
		Position:         position,
		TimeKey:          timeKey,
		ActiveEvents:     active,
		VisibleLocations: visible,
	}
}

// Nearest returns the event at location whose Timestamp is closest to
// position. Ties go to the earliest in bucket order.
func Nearest(src Source, location string, position int64) (*types.Event, bool) {
	var (
		best     *types.Event
		bestDist int64
	)
	for _, ev := range src.EventsAtLocation(location) {
		d := ev.Timestamp - position
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist {
			best, bestDist = ev, d
		}
	}
	return best, best != nil
}
