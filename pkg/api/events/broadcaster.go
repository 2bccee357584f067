// Package events fans dispatch events out to watch-stream subscribers.
package events

import (
	"sync"
	"time"

	"github.com/sigil/sigil/pkg/sigil"
)

// Event is the canonical event payload sent to watch subscribers.
type Event struct {
	Type      string    `json:"type"`
	Signal    string    `json:"signal,omitempty"`
	Args      []any     `json:"args,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster broadcasts events to in-process subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe subscribes to events with a buffered channel.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	if !b.closed {
		b.subscribers[ch] = struct{}{}
	} else {
		close(ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast sends an event to all subscribers without blocking; slow
// subscribers drop events on overflow.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// Sends stay under the read lock: Unsubscribe and Close take the
	// write lock before closing a channel, so no send can race a close.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Tap attaches a listener to sig that forwards every fire to the
// broadcaster as a "signal.fired" event. The returned connection
// behaves like any other; disconnecting it removes the tap.
func (b *Broadcaster) Tap(name string, sig *sigil.Signal) *sigil.Connection {
	return sig.Connect(func(args ...any) {
		b.Broadcast(Event{
			Type:   "signal.fired",
			Signal: name,
			Args:   args,
		})
	})
}

// Close closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
