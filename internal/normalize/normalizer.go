// Package normalize turns raw feed payloads into canonical events or rejects them.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/user/eventscope/internal/geo"
	"github.com/user/eventscope/internal/types"
)

// ErrRejected is wrapped by every RejectionError.
var ErrRejected = errors.New("event rejected")

// Reason says why an event was not admitted.
type Reason string

const (
	ReasonIgnoredType      Reason = "ignored_type"
	ReasonUnhandled        Reason = "unhandled_type"
	ReasonFilteredOut      Reason = "filtered_out"
	ReasonMissingCreatedAt Reason = "missing_created_at"
	ReasonMalformedTime    Reason = "malformed_created_at"
	ReasonTooOld           Reason = "too_old"
)

// RejectionError describes a dropped raw event.
type RejectionError struct {
	Reason Reason
	Type   string
	Topic  string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s (type: %s; topic: %s)", e.Reason, e.Type, e.Topic)
}

func (e *RejectionError) Unwrap() error {
	return ErrRejected
}

// Rules are the type/topic allow and ignore lists.
type Rules struct {
	AllowedTypes  []string
	AllowedTopics []string
	IgnoredTypes  []string
}

// Normalizer validates and enriches raw events.
type Normalizer struct {
	rules Rules
	geo   *geo.Table
}

// New creates a Normalizer resolving locations against table.
func New(rules Rules, table *geo.Table) *Normalizer {
	return &Normalizer{rules: rules, geo: table}
}

// Normalize admits raw as a new Event or returns a *RejectionError.
// Checks run in order: ignore list, allow lists, field filters, createdAt
// presence, then the retention floor minDate (Unix ms).
func (n *Normalizer) Normalize(raw types.RawEvent, filters Filters, minDate int64) (*types.Event, error) {
	typ, _ := raw.String("type")
	topic, _ := raw.String("topic")
	reject := func(r Reason) error {
		return &RejectionError{Reason: r, Type: typ, Topic: topic}
	}

	if slices.Contains(n.rules.IgnoredTypes, typ) {
		return nil, reject(ReasonIgnoredType)
	}
	if !slices.Contains(n.rules.AllowedTypes, typ) && !slices.Contains(n.rules.AllowedTopics, topic) {
		return nil, reject(ReasonUnhandled)
	}
	if !filters.Match(raw) {
		return nil, reject(ReasonFilteredOut)
	}

	createdAt, ok := raw["createdAt"]
	if !ok || createdAt == nil {
		return nil, reject(ReasonMissingCreatedAt)
	}
	ts, err := parseCreatedAt(createdAt)
	if err != nil {
		return nil, reject(ReasonMalformedTime)
	}
	if ts < minDate {
		return nil, reject(ReasonTooOld)
	}

	loc, _ := raw.String("location")
	loc, entry := n.geo.Resolve(loc)
	timeKey := types.MinuteFloor(ts)

	fields := make(types.RawEvent, len(raw))
	for k, v := range raw {
		fields[k] = v
	}

	return &types.Event{
		ID:           types.NewEventID(),
		Type:         typ,
		Topic:        topic,
		Location:     loc,
		Lat:          entry.Lat,
		Lng:          entry.Lng,
		LocationStr:  entry.Country,
		Timestamp:    ts,
		TimeKey:      timeKey,
		CreatedAtStr: time.UnixMilli(timeKey).UTC().Format("01/02/2006 15:04"),
		Fields:       fields,
	}, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseCreatedAt accepts an ISO-8601 string (UTC unless zoned) or epoch milliseconds.
func parseCreatedAt(v any) (int64, error) {
	switch x := v.(type) {
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, x, time.UTC); err == nil {
				return t.UnixMilli(), nil
			}
		}
		if ms, err := strconv.ParseInt(x, 10, 64); err == nil {
			return ms, nil
		}
		return 0, fmt.Errorf("unrecognized time %q", x)
	case json.Number:
		if ms, err := x.Int64(); err == nil {
			return ms, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case float64:
		return int64(x), nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	}
	return 0, fmt.Errorf("unsupported createdAt type %T", v)
}
