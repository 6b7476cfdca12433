// Package notify collects the user-facing messages produced while handling a
// single request. The HTTP layer drains them into a show-notification
// trigger, and the page script turns each one into a browser alert.
package notify

import (
	"context"
	"sync"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Notice is one message to show the user.
type Notice struct {
	Kind    Kind   `json:"type"`
	Message string `json:"message"`
}

// Collector accumulates notices. A nil *Collector discards everything.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

type contextKey struct{}

// NewContext returns a context carrying a fresh collector.
func NewContext(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, contextKey{}, c), c
}

// FromContext returns the collector in ctx, or nil.
func FromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(contextKey{}).(*Collector)
	return c
}

func (c *Collector) Add(kind Kind, message string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notices = append(c.notices, Notice{Kind: kind, Message: message})
	c.mu.Unlock()
}

func (c *Collector) Success(message string) { c.Add(Success, message) }

func (c *Collector) Error(message string) { c.Add(Error, message) }

// Notices returns a copy of what has been collected so far.
func (c *Collector) Notices() []Notice {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Len reports how many notices were collected.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notices)
}
