// internal/delivery/registry.go
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Handler delivers a message to a target such as "telegram:12345".
type Handler func(target, message string) error

// Registry routes messages to the appropriate delivery handler based on
// target prefix (e.g. "telegram:", "log:").
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a registry with the "log:" handler installed.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
	}
	r.Register("log:", logHandler)
	return r
}

// Register adds a handler for targets starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver finds the handler matching the target prefix and calls it.
// Returns an error if no handler is registered for the prefix.
func (r *Registry) Deliver(target, message string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for prefix, handler := range r.handlers {
		if strings.HasPrefix(target, prefix) {
			return handler(target, message)
		}
	}
	return fmt.Errorf("no delivery handler for target: %s", target)
}

// Broadcaster returns a func that delivers each message to every target.
// Failures are logged; one bad target does not stop the others.
func (r *Registry) Broadcaster(targets []string) func(message string) {
	targets = append([]string(nil), targets...)
	return func(message string) {
		for _, target := range targets {
			if err := r.Deliver(target, message); err != nil {
				slog.Warn("alert delivery failed", "target", target, "error", err)
			}
		}
	}
}

func logHandler(target, message string) error {
	level := slog.LevelWarn
	switch strings.TrimPrefix(target, "log:") {
	case "error":
		level = slog.LevelError
	case "info":
		level = slog.LevelInfo
	}
	slog.Log(context.Background(), level, "operator alert", "message", message)
	return nil
}
