// internal/types/models.go
package types

import "fmt"

// RawEvent is an undecoded-shape event as delivered by a transport.
// Common keys are "type", "topic", "location" and "createdAt".
type RawEvent map[string]any

// String returns the value at key if it is a string.
func (r RawEvent) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Event is an admitted, immutable event.
type Event struct {
	ID           EventID  `json:"id"`
	Type         string   `json:"type"`
	Topic        string   `json:"topic"`
	Location     string   `json:"location"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	LocationStr  string   `json:"locationStr"`
	Timestamp    int64    `json:"timestamp"`
	TimeKey      int64    `json:"timeKey"`
	CreatedAtStr string   `json:"createdAtStr"`
	Fields       RawEvent `json:"fields,omitempty"`
}

// LocationView is a visible location annotated for rendering.
type LocationView struct {
	Location string  `json:"location"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// TransportError is a connection-level failure reported by a feed.
type TransportError struct {
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
