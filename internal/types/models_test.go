// internal/types/models_test.go
package types

import (
	"errors"
	"testing"
)

func TestRawEventString(t *testing.T) {
	raw := RawEvent{"type": "challenge.created", "n": 3.0}

	if s, ok := raw.String("type"); !ok || s != "challenge.created" {
		t.Errorf("expected type string, got %q %v", s, ok)
	}
	if _, ok := raw.String("n"); ok {
		t.Error("expected non-string value to report false")
	}
	if _, ok := raw.String("missing"); ok {
		t.Error("expected missing key to report false")
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&TransportError{Source: "websocket", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("expected TransportError to unwrap to its cause")
	}
	if err.Error() != "transport websocket: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
