// Package notice carries short-lived, user-facing messages from the planner
// to whatever UI is displaying it.
//
// A [Notice] is data only: a message and how long it should stay visible.
// Showing and dismissing it is the UI's job. Sinks receive notices as they
// are raised and must not block.
package notice

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardengrid/pkg/errors"
)

// Display durations for the notices the engine raises.
const (
	OverlapDuration    = 2 * time.Second
	ValidationDuration = 3 * time.Second
)

// OverlapMessage is shown when a placement or move is rejected.
const OverlapMessage = "❌ Overlap!"

// Notice is a transient message for the user.
type Notice struct {
	Message    string `json:"message"`
	DurationMS int64  `json:"durationMs"`
}

// New creates a notice visible for d.
func New(message string, d time.Duration) Notice {
	return Notice{Message: message, DurationMS: d.Milliseconds()}
}

// Duration returns how long the notice should be displayed.
func (n Notice) Duration() time.Duration {
	return time.Duration(n.DurationMS) * time.Millisecond
}

// FromError maps an engine error to the notice it should raise.
// Missing-selection errors and unknown errors raise nothing.
func FromError(err error) (Notice, bool) {
	switch errors.GetCode(err) {
	case errors.ErrCodeOverlap:
		return New(OverlapMessage, OverlapDuration), true
	case errors.ErrCodeValidation:
		return New(errors.UserMessage(err), ValidationDuration), true
	default:
		return Notice{}, false
	}
}

// Sink receives notices.
type Sink interface {
	Notify(n Notice)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Notice)

// Notify calls f(n).
func (f SinkFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(Notice) {})

// Collector buffers notices until drained. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify appends n.
func (c *Collector) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

// Drain returns and clears the buffered notices.
func (c *Collector) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// LogSink writes notices to a logger at info level.
func LogSink(l *log.Logger) Sink {
	return SinkFunc(func(n Notice) {
		l.Info("notice", "message", n.Message, "duration", n.Duration())
	})
}

// Multi fans a notice out to every sink.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(n Notice) {
		for _, s := range sinks {
			s.Notify(n)
		}
	})
}
