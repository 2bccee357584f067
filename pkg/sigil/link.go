package sigil

import (
	"sync"
	"sync/atomic"
)

// Link is an ordered collection of member signals. Firing a link fires
// every enabled member in insertion order. Members are held by
// non-owning references: removing a membership or clearing the link
// never affects the signals themselves.
type Link struct {
	mu      sync.RWMutex
	members []*Membership
	enabled atomic.Bool
}

// Membership is a single signal-to-link edge created by Add. Duplicate
// adds of the same signal are tolerated; each produces a distinct edge
// that is fired and removed independently.
type Membership struct {
	sig  *Signal
	link *Link
	once sync.Once
}

// NewLink creates an empty, enabled Link.
func NewLink() *Link {
	l := &Link{}
	l.enabled.Store(true)
	return l
}

// Add appends sig to the link's member list and returns the membership
// edge. The signal's informational link tag is updated to this link.
func (l *Link) Add(sig *Signal) *Membership {
	m := &Membership{sig: sig, link: l}
	l.mu.Lock()
	l.members = append(l.members, m)
	l.mu.Unlock()
	sig.link.Store(l)
	return m
}

// Fire fires every enabled member with args, in insertion order. When
// the link itself is disabled nothing is fired. Disabled members are
// skipped entirely; their connections are not invoked. The member list
// is snapshotted before dispatch, mirroring Signal.Fire.
func (l *Link) Fire(args ...any) {
	if !l.enabled.Load() {
		metricsRecorder().RecordSkipped("link", "disabled")
		return
	}

	l.mu.RLock()
	snapshot := make([]*Membership, len(l.members))
	copy(snapshot, l.members)
	l.mu.RUnlock()

	fired := 0
	for _, m := range snapshot {
		if !m.sig.Enabled() {
			metricsRecorder().RecordSkipped("link", "member_disabled")
			continue
		}
		m.sig.Fire(args...)
		fired++
	}
	metricsRecorder().RecordFired("link", fired)
}

// IsLink implements Target.
func (l *Link) IsLink() bool { return true }

// Clear removes every membership edge from the link.
func (l *Link) Clear() {
	l.mu.Lock()
	l.members = nil
	l.mu.Unlock()
}

// SetEnabled sets the link's enabled gate, independent of the member
// signals' own gates.
func (l *Link) SetEnabled(enabled bool) {
	l.enabled.Store(enabled)
}

// Enabled reports whether the link is enabled.
func (l *Link) Enabled() bool {
	return l.enabled.Load()
}

// Len returns the number of membership edges.
func (l *Link) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.members)
}

// Signals returns the member signals in insertion order.
func (l *Link) Signals() []*Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Signal, len(l.members))
	for i, m := range l.members {
		out[i] = m.sig
	}
	return out
}

// Remove deletes this membership edge from its link. Idempotent; the
// member signal is untouched.
func (m *Membership) Remove() {
	m.once.Do(func() {
		l := m.link
		l.mu.Lock()
		for i, v := range l.members {
			if v == m {
				copy(l.members[i:], l.members[i+1:])
				l.members[len(l.members)-1] = nil
				l.members = l.members[:len(l.members)-1]
				break
			}
		}
		l.mu.Unlock()
	})
}

// FireList fires every target in order with args. The targets need not
// belong to any link; each is fired with its own gate semantics.
func FireList(targets []Target, args ...any) {
	for _, t := range targets {
		t.Fire(args...)
	}
	metricsRecorder().RecordFired("list", len(targets))
}
