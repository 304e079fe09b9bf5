// internal/types/ids.go
package types

import (
	"time"

	"github.com/google/uuid"
)

type EventID string

// NewEventID returns a process-unique identifier. IDs are never reused.
func NewEventID() EventID {
	return EventID(uuid.New().String())
}

// MinuteMillis is the width of one time bucket.
const MinuteMillis int64 = 60_000

// MinuteFloor zeroes the seconds and sub-second part of a millisecond timestamp.
func MinuteFloor(ms int64) int64 {
	r := ms % MinuteMillis
	if r < 0 {
		r += MinuteMillis
	}
	return ms - r
}

// Millis converts t to Unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
