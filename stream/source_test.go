package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/langgraph-stream/stream/event"
	"github.com/dshills/langgraph-stream/stream/message"
)

func TestParseSource_Channel(t *testing.T) {
	ch := make(chan any, 2)
	ch <- node("agent", map[string]any{"messages": []any{message.AI("one")}})
	ch <- node("agent", map[string]any{"messages": []any{message.AI("two")}})
	close(ch)

	p := newParser(t)
	var got []event.Event
	for ev := range p.ParseSource(context.Background(), FromChannel(ch)) {
		got = append(got, ev)
	}

	want := []event.Type{event.TypeContent, event.TypeContent, event.TypeComplete}
	if diff := cmp.Diff(want, types(got)); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSource_Cancelled(t *testing.T) {
	ch := make(chan any)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newParser(t)
	var got []event.Event
	for ev := range p.ParseSource(ctx, FromChannel(ch)) {
		got = append(got, ev)
	}

	if len(got) != 1 {
		t.Fatalf("expected a single error, got %v", types(got))
	}
	errEv, ok := got[0].(event.Error)
	if !ok || !errors.Is(errEv.Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", got[0])
	}
}

func TestParseSource_Nil(t *testing.T) {
	p := newParser(t)
	var got []event.Event
	for ev := range p.ParseSource(context.Background(), nil) {
		got = append(got, ev)
	}
	if len(got) != 1 || !errors.Is(got[0].(event.Error).Err, ErrNilSource) {
		t.Errorf("expected ErrNilSource, got %v", got)
	}

	got = collectSeq(p.Parse(nil))
	if len(got) != 1 || !errors.Is(got[0].(event.Error).Err, ErrNilSource) {
		t.Errorf("expected ErrNilSource from Parse, got %v", got)
	}
}

func TestSeqOf(t *testing.T) {
	chunks := []any{"a", "b"}
	i := 0
	src := SourceFunc(func(context.Context) (any, error) {
		if i == len(chunks) {
			return nil, io.EOF
		}
		i++
		return chunks[i-1], nil
	})

	var got []any
	for c, err := range SeqOf(context.Background(), src) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, c)
	}
	if diff := cmp.Diff(chunks, got); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}

	broken := SourceFunc(func(context.Context) (any, error) { return nil, errors.New("boom") })
	n := 0
	for _, err := range SeqOf(context.Background(), broken) {
		n++
		if err == nil || err.Error() != "boom" {
			t.Errorf("expected boom, got %v", err)
		}
	}
	if n != 1 {
		t.Errorf("expected the error once, got %d", n)
	}
}

func TestFromSeq(t *testing.T) {
	seq := func(yield func(any) bool) {
		yield(node("agent", map[string]any{"messages": message.AI("hi")}))
	}
	got := collectSeq(newParser(t).Parse(FromSeq(seq)))
	if diff := cmp.Diff([]event.Type{event.TypeContent, event.TypeComplete}, types(got)); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func collectSeq(seq iter.Seq[event.Event]) []event.Event {
	var out []event.Event
	for ev := range seq {
		out = append(out, ev)
	}
	return out
}
