package stream

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/langgraph-stream/stream/event"
)

// ignoreTimestamps drops timestamps and tool durations from event
// comparisons.
var ignoreTimestamps = cmp.Options{
	cmpopts.IgnoreFields(event.Content{}, "Timestamp"),
	cmpopts.IgnoreFields(event.ToolCallStart{}, "Timestamp"),
	cmpopts.IgnoreFields(event.ToolExtracted{}, "Timestamp"),
	cmpopts.IgnoreFields(event.Interrupt{}, "Timestamp"),
	cmpopts.IgnoreFields(event.StateUpdate{}, "Timestamp"),
	cmpopts.IgnoreFields(event.Usage{}, "Timestamp"),
	cmpopts.IgnoreFields(event.Complete{}, "Timestamp"),
	cmpopts.IgnoreFields(event.Error{}, "Timestamp"),
	cmpopts.IgnoreFields(event.ToolCallEnd{}, "Timestamp", "DurationMS"),
}

func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

func newParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func collect(p *Parser, chunks ...any) []event.Event {
	var out []event.Event
	for ev := range p.Parse(Chunks(chunks...)) {
		out = append(out, ev)
	}
	return out
}

// node builds a one-node update in arrival order.
func node(name string, state map[string]any) *Update {
	u := NewUpdate()
	u.Set(name, state)
	return u
}

// ordered builds an Update from alternating keys and values.
func ordered(pairs ...any) *Update {
	u := NewUpdate()
	for i := 0; i+1 < len(pairs); i += 2 {
		u.Set(pairs[i].(string), pairs[i+1])
	}
	return u
}

func ofType[T event.Event](events []event.Event) []T {
	var out []T
	for _, ev := range events {
		if e, ok := ev.(T); ok {
			out = append(out, e)
		}
	}
	return out
}

func types(events []event.Event) []event.Type {
	out := make([]event.Type, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type())
	}
	return out
}
