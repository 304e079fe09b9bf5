// Package feed connects to upstream event streams and hands decoded batches
// to the intake queue.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/eventscope/internal/types"
)

// Source is a long-running transport.
type Source interface {
	Name() string
	// Run blocks until ctx is done or the failure is not retryable.
	Run(ctx context.Context, sink types.BatchSink, reporter types.ErrorReporter) error
}

// Decode parses one message: either a single event object or an array of
// them. Array elements that are not objects are skipped. Numbers are kept
// as json.Number.
func Decode(payload []byte) ([]types.RawEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	switch x := v.(type) {
	case map[string]any:
		return []types.RawEvent{types.RawEvent(x)}, nil
	case []any:
		out := make([]types.RawEvent, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, types.RawEvent(m))
			}
		}
		return out, nil
	}
	return nil, errors.New("decode payload: expected object or array")
}
