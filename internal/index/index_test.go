package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/eventscope/internal/types"
)

var T = time.Date(2024, 5, 10, 14, 20, 0, 0, time.UTC).UnixMilli()

func event(loc string, ts int64) *types.Event {
	return &types.Event{
		ID:        types.NewEventID(),
		Location:  loc,
		Timestamp: ts,
		TimeKey:   types.MinuteFloor(ts),
	}
}

func count(events []*types.Event, id types.EventID) int {
	n := 0
	for _, ev := range events {
		if ev.ID == id {
			n++
		}
	}
	return n
}

func TestInsertVisibleInBothViews(t *testing.T) {
	x := New()
	ev := event("USA", T+12_000)
	x.Insert(ev)

	assert.Equal(t, 1, count(x.EventsAtTime(ev.TimeKey), ev.ID))
	assert.Equal(t, 1, count(x.EventsAtLocation("USA"), ev.ID))
	assert.Contains(t, x.LocationsVisibleAt(ev.Timestamp), "USA")
	assert.Equal(t, 1, x.Len())
}

func TestBucketsKeepInsertionOrder(t *testing.T) {
	x := New()
	a := event("USA", T+50_000)
	b := event("India", T+1_000)
	c := event("USA", T+30_000)
	x.Insert(a)
	x.Insert(b)
	x.Insert(c)

	at := x.EventsAtTime(T)
	require.Len(t, at, 3)
	assert.Equal(t, []types.EventID{a.ID, b.ID, c.ID}, []types.EventID{at[0].ID, at[1].ID, at[2].ID})

	usa := x.EventsAtLocation("USA")
	require.Len(t, usa, 2)
	assert.Equal(t, a.ID, usa[0].ID)
	assert.Equal(t, c.ID, usa[1].ID)
}

func TestEventsAtTimeMissingBucket(t *testing.T) {
	x := New()
	assert.Empty(t, x.EventsAtTime(T))
	assert.Empty(t, x.EventsAtLocation("USA"))
}

func TestLocationsVisibleAt(t *testing.T) {
	x := New()
	x.Insert(event("USA", T))
	x.Insert(event("India", T+2*types.MinuteMillis))
	x.Insert(event("Brazil", T+types.MinuteMillis+59_000))

	assert.Equal(t, []string{"USA"}, x.LocationsVisibleAt(T+59_999))
	assert.Equal(t, []string{"Brazil", "USA"}, x.LocationsVisibleAt(T+types.MinuteMillis))
	assert.Equal(t, []string{"Brazil", "India", "USA"}, x.LocationsVisibleAt(T+10*types.MinuteMillis))
	assert.Empty(t, x.LocationsVisibleAt(T-1))
}

func TestEvictRemovesFromBothViews(t *testing.T) {
	x := New()
	old1 := event("USA", T)
	old2 := event("India", T+5_000)
	keep := event("USA", T+2*types.MinuteMillis)
	// inserted out of chronological order on purpose
	x.Insert(keep)
	x.Insert(old1)
	x.Insert(old2)

	removed := x.Evict(T + types.MinuteMillis)
	require.Len(t, removed, 2)

	for _, ev := range removed {
		assert.Zero(t, count(x.EventsAtTime(ev.TimeKey), ev.ID))
		assert.Zero(t, count(x.EventsAtLocation(ev.Location), ev.ID))
	}
	for _, k := range x.TimeKeys() {
		assert.GreaterOrEqual(t, k, T+types.MinuteMillis)
	}
	assert.Equal(t, 1, count(x.EventsAtLocation("USA"), keep.ID))
	assert.Empty(t, x.EventsAtLocation("India"))
	times, locs := x.Buckets()
	assert.Equal(t, 1, times)
	assert.Equal(t, 1, locs)
	assert.Equal(t, 1, x.Len())
}

func TestEvictBoundaryKeepsEqualKey(t *testing.T) {
	x := New()
	ev := event("USA", T)
	x.Insert(ev)

	assert.Empty(t, x.Evict(T))
	assert.Equal(t, 1, x.Len())
}

func TestEvictIdempotent(t *testing.T) {
	x := New()
	for i := int64(0); i < 5; i++ {
		x.Insert(event("USA", T+i*types.MinuteMillis))
		x.Insert(event("India", T+i*types.MinuteMillis+1))
	}
	cut := T + 3*types.MinuteMillis

	first := x.Evict(cut)
	keysAfterFirst := x.TimeKeys()
	usaAfterFirst := x.EventsAtLocation("USA")

	second := x.Evict(cut)
	assert.Len(t, first, 6)
	assert.Empty(t, second)
	assert.Equal(t, keysAfterFirst, x.TimeKeys())
	assert.Equal(t, usaAfterFirst, x.EventsAtLocation("USA"))
}
