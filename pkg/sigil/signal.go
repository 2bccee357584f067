package sigil

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sigil/sigil/pkg/logger"
)

// Callback is a listener function attached to a Signal. Callbacks must
// accept any argument list; the arguments given to Fire are passed
// through unchanged.
type Callback func(args ...any)

// Target is implemented by anything that can be fired: a Signal or a
// Link. It is the polymorphic entry point used by FireList.
type Target interface {
	// Fire schedules delivery of args to the target's listeners and
	// returns without waiting for any of them to run.
	Fire(args ...any)

	// IsLink reports whether the target is a Link.
	IsLink() bool
}

// Signal is an ordered collection of connections with an enabled gate.
// The zero value is not usable; create signals with New.
type Signal struct {
	mu      sync.RWMutex
	conns   []*Connection
	enabled atomic.Bool
	link    atomic.Pointer[Link]
}

// Connection is a single callback registration on a Signal. It is
// returned by Connect and removed by Disconnect.
type Connection struct {
	id      string
	fn      Callback
	sig     *Signal
	removed atomic.Bool
	once    sync.Once
}

// New creates an empty, enabled Signal.
func New() *Signal {
	s := &Signal{}
	s.enabled.Store(true)
	return s
}

// Connect appends fn to the signal's connection list and returns the
// connection. Listeners are scheduled in connection order on fire.
func (s *Signal) Connect(fn Callback) *Connection {
	c := &Connection{
		id:  uuid.New().String(),
		fn:  fn,
		sig: s,
	}
	s.mu.Lock()
	s.conns = append(s.conns, c)
	s.mu.Unlock()
	return c
}

// Fire schedules an independent invocation of every currently attached
// connection with args and returns immediately. When the signal is
// disabled this is a no-op.
//
// The connection list is snapshotted before any invocation is
// scheduled: connections added during a fire are not invoked by that
// fire, and the snapshot cannot be corrupted by concurrent
// Connect/Disconnect calls. Goroutines are launched in insertion
// order; completion order is unspecified.
func (s *Signal) Fire(args ...any) {
	if !s.enabled.Load() {
		metricsRecorder().RecordSkipped("signal", "disabled")
		return
	}

	s.mu.RLock()
	snapshot := make([]*Connection, len(s.conns))
	copy(snapshot, s.conns)
	s.mu.RUnlock()

	for _, c := range snapshot {
		go c.invoke(args)
	}
	metricsRecorder().RecordFired("signal", len(snapshot))
}

// IsLink implements Target.
func (s *Signal) IsLink() bool { return false }

// DisconnectAll removes every connection. Invocations already
// scheduled by an earlier Fire still run to completion.
func (s *Signal) DisconnectAll() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for _, c := range conns {
		c.removed.Store(true)
	}
}

// SetEnabled sets the enabled gate. Disabling only affects subsequent
// Fire calls; it does not cancel invocations already scheduled.
func (s *Signal) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// Enabled reports whether the signal is enabled.
func (s *Signal) Enabled() bool {
	return s.enabled.Load()
}

// Len returns the number of attached connections.
func (s *Signal) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Link returns the link this signal was most recently added to, or nil.
// The tag is informational; a signal may belong to any number of links.
func (s *Signal) Link() *Link {
	return s.link.Load()
}

// ID returns the connection's identifier, unique within its signal.
func (c *Connection) ID() string { return c.id }

// Disconnect removes the connection from its signal. It is idempotent:
// later calls find nothing to remove and return silently. Safe to call
// concurrently with an in-flight Fire; an invocation that has not yet
// started observes the removal and is skipped.
func (c *Connection) Disconnect() {
	c.once.Do(func() {
		c.removed.Store(true)
		s := c.sig
		s.mu.Lock()
		for i, v := range s.conns {
			if v == c {
				copy(s.conns[i:], s.conns[i+1:])
				s.conns[len(s.conns)-1] = nil
				s.conns = s.conns[:len(s.conns)-1]
				break
			}
		}
		s.mu.Unlock()
	})
}

// invoke runs the callback with panic isolation. A panicking listener
// is logged and counted, never re-raised to the firing caller.
func (c *Connection) invoke(args []any) {
	if c.removed.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			metricsRecorder().RecordPanic("signal")
			logger.Error("listener panicked during dispatch",
				"connection_id", c.id,
				"panic", r,
			)
		}
	}()
	c.fn(args...)
}
