package highlight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/eventscope/internal/types"
)

var now = time.Date(2024, 5, 10, 14, 20, 0, 0, time.UTC)

func ev() *types.Event {
	return &types.Event{ID: types.NewEventID()}
}

func TestAddSetsExpiry(t *testing.T) {
	q := New(5 * time.Second)
	e := q.Add(ev(), now)
	assert.Equal(t, now.Add(5*time.Second), e.ExpireAt)
	assert.Equal(t, 1, q.Len())
}

func TestExpireDueFIFO(t *testing.T) {
	q := New(5 * time.Second)
	a, b, c := ev(), ev(), ev()
	q.Add(a, now)
	q.Add(b, now.Add(time.Second))
	q.Add(c, now.Add(3*time.Second))

	assert.Empty(t, q.ExpireDue(now.Add(4*time.Second)))

	due := q.ExpireDue(now.Add(6 * time.Second))
	require.Len(t, due, 2)
	assert.Equal(t, a.ID, due[0].Event.ID)
	assert.Equal(t, b.ID, due[1].Event.ID)
	assert.Equal(t, 1, q.Len())
}

func TestPopFront(t *testing.T) {
	q := New(time.Second)
	a, b := ev(), ev()
	q.Add(a, now)
	q.Add(b, now)

	e, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, a.ID, e.Event.ID)
	e, ok = q.PopFront()
	require.True(t, ok)
	assert.Equal(t, b.ID, e.Event.ID)
	_, ok = q.PopFront()
	assert.False(t, ok)
}

func TestRemoveByIdentity(t *testing.T) {
	q := New(time.Second)
	a, b := ev(), ev()
	q.Add(a, now)
	q.Add(b, now)
	q.Add(a, now)

	n := q.Remove(map[types.EventID]struct{}{a.ID: {}})
	assert.Equal(t, 2, n)
	entries := q.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].Event.ID)
}

func TestDropMatchesEntryNotJustEvent(t *testing.T) {
	q := New(time.Second)
	a := ev()
	first := q.Add(a, now)
	second := q.Add(a, now.Add(time.Second))

	assert.True(t, q.Drop(second))
	assert.False(t, q.Drop(second))
	entries := q.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, first.ExpireAt, entries[0].ExpireAt)
}
