package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/eventscope/internal/geo"
	"github.com/user/eventscope/internal/index"
	"github.com/user/eventscope/internal/types"
)

var T = time.Date(2024, 5, 10, 14, 20, 0, 0, time.UTC).UnixMilli()

func table() *geo.Table {
	return geo.New(map[string]geo.Entry{
		"USA":   {Country: "United States", Lat: 38, Lng: -97},
		"India": {Country: "India", Lat: 20, Lng: 77},
	}, "Virginia, USA", geo.Entry{Lat: 37.9, Lng: -78})
}

func insert(x *index.Index, loc string, ts int64) *types.Event {
	ev := &types.Event{ID: types.NewEventID(), Location: loc, Timestamp: ts, TimeKey: types.MinuteFloor(ts)}
	x.Insert(ev)
	return ev
}

func TestProjectActiveBucketOnly(t *testing.T) {
	x := index.New()
	a := insert(x, "USA", T)
	insert(x, "USA", T+types.MinuteMillis)

	v := Project(x, table(), T)
	require.Len(t, v.ActiveEvents, 1)
	assert.Equal(t, a.ID, v.ActiveEvents[0].ID)
	assert.Equal(t, T, v.TimeKey)

	require.Len(t, v.VisibleLocations, 1)
	assert.Equal(t, types.LocationView{Location: "USA", Country: "United States", Lat: 38, Lng: -97}, v.VisibleLocations[0])
}

func TestProjectTruncatesLivePosition(t *testing.T) {
	x := index.New()
	a := insert(x, "India", T+10_000)

	v := Project(x, table(), T+45_000)
	require.Len(t, v.ActiveEvents, 1)
	assert.Equal(t, a.ID, v.ActiveEvents[0].ID)
	assert.Equal(t, T+45_000, v.Position)
}

func TestProjectEmpty(t *testing.T) {
	v := Project(index.New(), table(), T)
	assert.NotNil(t, v.ActiveEvents)
	assert.Empty(t, v.ActiveEvents)
	assert.Empty(t, v.VisibleLocations)
}

func TestProjectDoesNotMutate(t *testing.T) {
	x := index.New()
	insert(x, "USA", T)
	v := Project(x, table(), T)
	v.ActiveEvents[0] = nil
	assert.NotNil(t, x.EventsAtTime(T)[0])
}

func TestNearestPicksClosest(t *testing.T) {
	x := index.New()
	insert(x, "USA", T-5_000)
	near := insert(x, "USA", T+2_000)
	insert(x, "India", T)

	ev, ok := Nearest(x, "USA", T)
	require.True(t, ok)
	assert.Equal(t, near.ID, ev.ID)
}

func TestNearestTieGoesToFirst(t *testing.T) {
	x := index.New()
	first := insert(x, "USA", T-3_000)
	insert(x, "USA", T+3_000)

	ev, ok := Nearest(x, "USA", T)
	require.True(t, ok)
	assert.Equal(t, first.ID, ev.ID)
}

func TestNearestUnknownLocation(t *testing.T) {
	_, ok := Nearest(index.New(), "Nowhere", T)
	assert.False(t, ok)
}
