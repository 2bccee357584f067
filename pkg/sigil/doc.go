// Package sigil implements in-process publish/subscribe signals.
//
// A Signal holds an ordered list of callback connections. Firing a
// signal schedules every connected callback on its own goroutine and
// returns immediately; callbacks never block the firing caller and a
// panicking callback never affects its siblings. A Link groups
// signals so a single fire fans out to every enabled member. The
// package-level registry maps names to signals so independent call
// sites can share a signal without passing references around.
//
// Basic usage:
//
//	s := sigil.New()
//	conn := s.Connect(func(args ...any) {
//	    fmt.Println(args...)
//	})
//	s.Fire("hello", 3)
//	conn.Disconnect()
//
// Fan-out through a link:
//
//	l := sigil.NewLink()
//	l.Add(a)
//	l.Add(b)
//	l.Fire("deploy")
//
// Discovery through the registry:
//
//	_ = sigil.Store("cache.evicted", s, false)
//	if evicted, ok := sigil.Get("cache.evicted"); ok {
//	    evicted.Fire(key)
//	}
package sigil
