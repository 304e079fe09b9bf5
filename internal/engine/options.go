package engine

import (
	"errors"
	"time"

	"github.com/user/eventscope/internal/geo"
	"github.com/user/eventscope/internal/metrics"
	"github.com/user/eventscope/internal/normalize"
	"github.com/user/eventscope/internal/view"
)

// Publisher receives every view the engine produces. Publish must not block.
type Publisher interface {
	Publish(v view.View)
}

// AlertFunc delivers an operator-facing message.
type AlertFunc func(message string)

// Options configures an Engine.
type Options struct {
	Retention        time.Duration
	AutoplayInterval time.Duration
	CleanupInterval  time.Duration
	FadeDuration     time.Duration

	Rules   normalize.Rules
	Filters normalize.Filters
	Geo     *geo.Table

	// Optional collaborators.
	Metrics   *metrics.Recorder
	Publisher Publisher
	Alert     AlertFunc
	Now       func() time.Time
}

func (o *Options) validate() error {
	if o.Geo == nil {
		return errors.New("geo table is required")
	}
	if o.Retention <= 0 {
		return errors.New("retention must be positive")
	}
	if o.AutoplayInterval <= 0 {
		o.AutoplayInterval = time.Second
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = time.Minute
	}
	if o.FadeDuration <= 0 {
		o.FadeDuration = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}
