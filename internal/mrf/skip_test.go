package mrf

import (
	"strings"
	"testing"
)

func TestBypassValueScalar(t *testing.T) {
	src := NewSource(strings.NewReader(`"x" "after"`))
	if err := BypassValue(src); err != nil {
		t.Fatalf("BypassValue: %v", err)
	}
	ev, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Kind != String || ev.Str != "after" {
		t.Fatalf("got %+v, want String \"after\"", ev)
	}
}

func TestBypassValueNestedObject(t *testing.T) {
	src := NewSource(strings.NewReader(`{"a":{"b":[1,2,{"c":3}]}} "after"`))
	if err := BypassValue(src); err != nil {
		t.Fatalf("BypassValue: %v", err)
	}
	ev, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Kind != String || ev.Str != "after" {
		t.Fatalf("got %+v, want String \"after\"", ev)
	}
}

func TestBypassValueEOFIsFatal(t *testing.T) {
	src := NewSource(strings.NewReader(`{"a":[1,2`))
	if err := BypassValue(src); err == nil {
		t.Fatal("expected error on truncated input, got nil")
	}
}

func TestSkipArray(t *testing.T) {
	src := NewSource(strings.NewReader(`[{"a":1},{"b":2}] "after"`))
	if err := expect(src, ArrayStart); err != nil {
		t.Fatalf("expect ArrayStart: %v", err)
	}
	if err := SkipArray(src); err != nil {
		t.Fatalf("SkipArray: %v", err)
	}
	ev, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Kind != String || ev.Str != "after" {
		t.Fatalf("got %+v, want String \"after\"", ev)
	}
}

func TestFFToEndOfObject(t *testing.T) {
	src := NewSource(strings.NewReader(`{"k1":"v1","k2":{"nested":true}} "after"`))
	// Consume events up through reading "k1"'s value, as if a caller had
	// read one field before deciding to abandon the rest of the object.
	for i := 0; i < 3; i++ { // ObjectStart, Key "k1", String "v1"
		if _, err := src.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if err := FFToEndOfObject(src, 1, 0); err != nil {
		t.Fatalf("FFToEndOfObject: %v", err)
	}
	ev, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Kind != String || ev.Str != "after" {
		t.Fatalf("got %+v, want String \"after\"", ev)
	}
}
