package feed

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/user/eventscope/internal/types"
)

// WebSocketSource reads event payloads from a websocket endpoint.
type WebSocketSource struct {
	URL       string
	Header    http.Header
	Subscribe string // optional message sent after connecting
	Dialer    *websocket.Dialer
	Retry     *RetryPolicy
}

// NewWebSocketSource creates a source for url with the default retry policy.
func NewWebSocketSource(url, subscribe string) *WebSocketSource {
	return &WebSocketSource{
		URL:       url,
		Subscribe: subscribe,
		Dialer:    websocket.DefaultDialer,
		Retry:     DefaultRetryPolicy(),
	}
}

func (s *WebSocketSource) Name() string { return "websocket" }

// Run connects, reads until the connection drops, reports the failure and
// reconnects with backoff.
func (s *WebSocketSource) Run(ctx context.Context, sink types.BatchSink, reporter types.ErrorReporter) error {
	attempt := 0
	for {
		err := s.session(ctx, sink, &attempt)
		if ctx.Err() != nil {
			return nil
		}
		terr := &types.TransportError{Source: s.Name(), Err: err}
		reporter.ReportTransportError(terr)

		attempt++
		if !s.Retry.ShouldRetry(err, attempt) {
			return terr
		}
		slog.Info("reconnecting feed", "source", s.Name(), "attempt", attempt, "delay", s.Retry.NextDelay(attempt))
		if err := s.Retry.Wait(ctx, attempt); err != nil {
			return nil
		}
	}
}

func (s *WebSocketSource) session(ctx context.Context, sink types.BatchSink, attempt *int) error {
	conn, _, err := s.Dialer.DialContext(ctx, s.URL, s.Header)
	if err != nil {
		return err
	}
	defer conn.Close()
	*attempt = 0
	slog.Info("feed connected", "source", s.Name(), "url", s.URL)

	if s.Subscribe != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(s.Subscribe)); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		deliver(s.Name(), message, sink)
	}
}

// deliver decodes one message and enqueues it. Bad payloads are dropped.
func deliver(source string, payload []byte, sink types.BatchSink) {
	batch, err := Decode(payload)
	if err != nil {
		slog.Warn("dropping undecodable payload", "source", source, "error", err)
		return
	}
	if err := sink.Enqueue(batch); err != nil {
		slog.Warn("dropping batch", "source", source, "size", len(batch), "error", err)
	}
}
