package mrf

import (
	"strings"
	"testing"
)

func collectEvents(t *testing.T, src *Source) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := src.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, ev)
		if ev.Kind == EOF {
			return events
		}
	}
}

func TestSourceEmptyObject(t *testing.T) {
	src := NewSource(strings.NewReader(`{}`))
	events := collectEvents(t, src)
	want := []Kind{ObjectStart, ObjectEnd, EOF}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Errorf("event %d: got %v, want %v", i, events[i].Kind, k)
		}
	}
}

func TestSourceKeyVsStringValue(t *testing.T) {
	src := NewSource(strings.NewReader(`{"k":"v"}`))
	events := collectEvents(t, src)
	want := []Event{
		{Kind: ObjectStart},
		{Kind: Key, Str: "k"},
		{Kind: String, Str: "v"},
		{Kind: ObjectEnd},
		{Kind: EOF},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i].Kind != want[i].Kind || events[i].Str != want[i].Str {
			t.Errorf("event %d: got %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestSourceArrayOfObjects(t *testing.T) {
	src := NewSource(strings.NewReader(`[{"a":1},{"a":2}]`))
	events := collectEvents(t, src)
	want := []Kind{
		ArrayStart,
		ObjectStart, Key, Number, ObjectEnd,
		ObjectStart, Key, Number, ObjectEnd,
		ArrayEnd, EOF,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Errorf("event %d: got %v, want %v", i, events[i].Kind, k)
		}
	}
}

func TestSourceNestedObjectFlushesParentKeyState(t *testing.T) {
	// After a nested object value closes, the parent must resume
	// awaiting a key rather than treating the next string as a value.
	src := NewSource(strings.NewReader(`{"outer":{"inner":"x"},"next":"y"}`))
	events := collectEvents(t, src)
	var keys []string
	for _, ev := range events {
		if ev.Kind == Key {
			keys = append(keys, ev.Str)
		}
	}
	if len(keys) != 3 || keys[0] != "outer" || keys[1] != "inner" || keys[2] != "next" {
		t.Fatalf("got keys %v, want [outer inner next]", keys)
	}
}

func TestSourcePreservesNumberText(t *testing.T) {
	src := NewSource(strings.NewReader(`[9.990000, 101]`))
	events := collectEvents(t, src)
	var nums []string
	for _, ev := range events {
		if ev.Kind == Number {
			nums = append(nums, ev.Str)
		}
	}
	if len(nums) != 2 || nums[0] != "9.990000" || nums[1] != "101" {
		t.Fatalf("got %v, want [9.990000 101]", nums)
	}
}

func TestSourceBoolAndNull(t *testing.T) {
	src := NewSource(strings.NewReader(`[true,false,null]`))
	events := collectEvents(t, src)
	want := []Kind{ArrayStart, Bool, Bool, Null, ArrayEnd, EOF}
	for i, k := range want {
		if events[i].Kind != k {
			t.Errorf("event %d: got %v, want %v", i, events[i].Kind, k)
		}
	}
	if events[1].Bool != true || events[2].Bool != false {
		t.Errorf("bool values wrong: %+v %+v", events[1], events[2])
	}
}
