package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/user/eventscope/internal/types"
)

// RedisSource reads event payloads from a Redis pub/sub channel.
type RedisSource struct {
	Client  *redis.Client
	Channel string
	Retry   *RetryPolicy
}

// NewRedisSource creates a source subscribed to channel on addr.
func NewRedisSource(addr, password string, db int, channel string) *RedisSource {
	return &RedisSource{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		Channel: channel,
		Retry:   DefaultRetryPolicy(),
	}
}

func (s *RedisSource) Name() string { return "redis" }

// Run subscribes and forwards messages until ctx is done. Subscription
// failures are reported and retried with backoff.
func (s *RedisSource) Run(ctx context.Context, sink types.BatchSink, reporter types.ErrorReporter) error {
	defer s.Client.Close()

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
		if err := s.Retry.Wait(ctx, attempt); err != nil {
			return nil
		}
	}
}

func (s *RedisSource) session(ctx context.Context, sink types.BatchSink, attempt *int) error {
	pubsub := s.Client.Subscribe(ctx, s.Channel)
	defer pubsub.Close()

	// Receive confirms the subscription before messages flow.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	*attempt = 0
	slog.Info("feed connected", "source", s.Name(), "channel", s.Channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription channel closed")
			}
			deliver(s.Name(), []byte(msg.Payload), sink)
		}
	}
}
