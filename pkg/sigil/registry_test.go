package sigil

import (
	"errors"
	"testing"
)

func TestRegistry_RoundTrip(t *testing.T) {
	r := NewRegistry()
	s := New()

	if err := r.Store("cache.evicted", s, false); err != nil {
		t.Fatal(err)
	}

	got, ok := r.Get("cache.evicted")
	if !ok {
		t.Fatal("expected name to be bound")
	}
	if got != s {
		t.Error("expected the stored signal back")
	}

	r.Remove("cache.evicted")
	if _, ok := r.Get("cache.evicted"); ok {
		t.Error("expected name to be unbound after Remove")
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()
	sig, ok := r.Get("nope")
	if ok {
		t.Error("expected ok=false for unbound name")
	}
	if sig != nil {
		t.Error("expected nil signal for unbound name")
	}
}

func TestRegistry_RemoveMissingIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Remove("nope")
	r.Remove("nope")
}

func TestRegistry_Collision(t *testing.T) {
	r := NewRegistry()
	s1, s2 := New(), New()

	if err := r.Store("k", s1, false); err != nil {
		t.Fatal(err)
	}

	err := r.Store("k", s2, false)
	if !errors.Is(err, ErrNameBound) {
		t.Fatalf("expected ErrNameBound, got %v", err)
	}
	if got, _ := r.Get("k"); got != s1 {
		t.Error("expected registry unchanged after failed store")
	}

	if err := r.Store("k", s2, true); err != nil {
		t.Fatalf("expected override store to succeed, got %v", err)
	}
	if got, _ := r.Get("k"); got != s2 {
		t.Error("expected override store to replace the binding")
	}
}

func TestRegistry_EmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Store("", New(), false); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestRegistry_NilSignal(t *testing.T) {
	r := NewRegistry()
	if err := r.Store("k", nil, false); !errors.Is(err, ErrNilSignal) {
		t.Errorf("expected ErrNilSignal, got %v", err)
	}
}

func TestRegistry_ListIsACopy(t *testing.T) {
	r := NewRegistry()
	s := New()
	if err := r.Store("a", s, false); err != nil {
		t.Fatal(err)
	}

	view := r.List()
	if len(view) != 1 || view["a"] != s {
		t.Fatalf("unexpected listing %v", view)
	}

	delete(view, "a")
	view["b"] = New()

	if _, ok := r.Get("a"); !ok {
		t.Error("expected registry to be unaffected by mutating the listing")
	}
	if _, ok := r.Get("b"); ok {
		t.Error("expected registry to be unaffected by mutating the listing")
	}
}

func TestRegistry_RemoveDoesNotDestroySignal(t *testing.T) {
	r := NewRegistry()
	s := New()
	s.Connect(func(args ...any) {})
	_ = r.Store("k", s, false)

	r.Remove("k")

	if s.Len() != 1 {
		t.Error("expected signal to keep its connections after registry removal")
	}
}

func TestDefaultRegistry(t *testing.T) {
	s := New()
	name := "test.default." + s.Connect(func(args ...any) {}).ID()
	defer Remove(name)

	if err := Store(name, s, false); err != nil {
		t.Fatal(err)
	}
	got, ok := Get(name)
	if !ok || got != s {
		t.Error("expected package-level round trip through the default registry")
	}
	if _, ok := List()[name]; !ok {
		t.Error("expected name in the default registry listing")
	}
	if Default().Len() == 0 {
		t.Error("expected default registry to be non-empty")
	}
}
