package stream

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/langgraph-stream/stream/emit"
	"github.com/dshills/langgraph-stream/stream/event"
	"github.com/dshills/langgraph-stream/stream/extract"
	"github.com/dshills/langgraph-stream/stream/interrupt"
	"github.com/dshills/langgraph-stream/stream/message"
	"github.com/dshills/langgraph-stream/stream/resume"
)

func searchCall(id string) message.ToolCall {
	return message.ToolCall{ID: id, Name: "search", Args: map[string]any{"query": "weather"}}
}

func TestParse_ToolCallOnlyMessage(t *testing.T) {
	p := newParser(t, WithClock(fixedClock))

	got := collect(p, node("agent", map[string]any{
		"messages": []any{message.AI("", searchCall("call_1"))},
	}))

	want := []event.Event{
		event.ToolCallStart{ID: "call_1", Name: "search", Args: map[string]any{"query": "weather"}, Node: "agent"},
		event.Complete{},
	}
	if diff := cmp.Diff(want, got, ignoreTimestamps); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if p.Pending() != 1 {
		t.Errorf("expected 1 pending call, got %d", p.Pending())
	}
}

func TestParse_ReflectionExtracted(t *testing.T) {
	p := newParser(t)

	got := collect(p, node("tools", map[string]any{
		"messages": []any{message.Tool("think_tool", "", `{"reflection": "I should search more."}`)},
	}))

	want := []event.Event{
		event.ToolExtracted{ToolName: "think_tool", ExtractedType: "reflection", Data: "I should search more."},
		event.Complete{},
	}
	if diff := cmp.Diff(want, got, ignoreTimestamps); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ToolErrorEnd(t *testing.T) {
	p := newParser(t, WithClock(steppingClock(5*time.Millisecond)))

	got := collect(p,
		node("agent", map[string]any{"messages": []any{message.AI("", searchCall("call_1"))}}),
		node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "Error: rate limited")}}),
	)

	ends := ofType[event.ToolCallEnd](got)
	if len(ends) != 1 {
		t.Fatalf("expected 1 tool call end, got %d: %v", len(ends), types(got))
	}
	end := ends[0]
	if end.Status != event.StatusError {
		t.Errorf("expected status error, got %q", end.Status)
	}
	if end.ErrorMessage != "Error: rate limited" {
		t.Errorf("expected error message %q, got %q", "Error: rate limited", end.ErrorMessage)
	}
	if end.Result != "Error: rate limited" {
		t.Errorf("expected raw result, got %v", end.Result)
	}
	if end.DurationMS == nil || *end.DurationMS != 5 {
		t.Errorf("expected duration 5ms, got %v", end.DurationMS)
	}
	if p.Pending() != 0 {
		t.Errorf("expected no pending calls, got %d", p.Pending())
	}
}

func TestParse_SuccessfulEnd(t *testing.T) {
	p := newParser(t)

	got := collect(p,
		node("agent", map[string]any{"messages": []any{message.AI("", searchCall("call_1"))}}),
		node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "Sunny, 22C")}}),
	)

	ends := ofType[event.ToolCallEnd](got)
	if len(ends) != 1 {
		t.Fatalf("expected 1 tool call end, got %d", len(ends))
	}
	if ends[0].Status != event.StatusSuccess || ends[0].ErrorMessage != "" {
		t.Errorf("expected clean success, got %+v", ends[0])
	}
	if ends[0].Name != "search" || ends[0].ID != "call_1" {
		t.Errorf("expected search/call_1, got %s/%s", ends[0].Name, ends[0].ID)
	}
}

// opaqueResult is a host value whose JSON encoding panics.
type opaqueResult struct{}

func (opaqueResult) MarshalJSON() ([]byte, error) {
	panic("marshal boom")
}

func TestParse_OpaqueToolResult(t *testing.T) {
	chunks := []any{
		node("agent", map[string]any{"messages": []any{message.AI("", searchCall("call_1"))}}),
		node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", opaqueResult{})}}),
	}

	t.Run("without emitter", func(t *testing.T) {
		got := collect(newParser(t), chunks...)
		want := []event.Event{
			event.ToolCallStart{ID: "call_1", Name: "search", Args: map[string]any{"query": "weather"}, Node: "agent"},
			event.ToolCallEnd{ID: "call_1", Name: "search", Result: opaqueResult{}, Status: event.StatusSuccess},
			event.Complete{},
		}
		if diff := cmp.Diff(want, got, ignoreTimestamps); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("with emitter", func(t *testing.T) {
		buf := emit.NewBufferedEmitter()
		got := collect(newParser(t, WithEmitter(buf)), chunks...)
		if _, ok := got[len(got)-1].(event.Complete); !ok {
			t.Fatalf("expected Complete last, got %T", got[len(got)-1])
		}
		var ends []emit.Event
		for _, runID := range buf.Runs() {
			ends = append(ends, buf.GetHistoryWithFilter(runID, emit.HistoryFilter{Msg: "tool_call_end"})...)
		}
		if len(ends) != 1 {
			t.Fatalf("expected 1 tool_call_end emit, got %d", len(ends))
		}
		if _, ok := ends[0].Meta["result"].(string); !ok {
			t.Errorf("expected result rendered as text, got %T", ends[0].Meta["result"])
		}
	})
}

func TestParse_InterruptAggregates(t *testing.T) {
	request := func(tool, id string) interrupt.Interrupt {
		return interrupt.Interrupt{Value: map[string]any{
			"action_requests": []any{map[string]any{"name": tool, "tool_call_id": id, "args": map[string]any{}}},
			"review_configs":  []any{map[string]any{"allowed_decisions": []any{"approve", "reject"}}},
		}}
	}
	raw := []any{request("delete_file", "call_1"), request("send_email", "call_2")}

	p := newParser(t)
	got := collect(p, ordered(
		"agent", map[string]any{"messages": []any{message.AI("ignored")}},
		interrupt.Key, raw,
	))

	if diff := cmp.Diff([]event.Type{event.TypeInterrupt, event.TypeComplete}, types(got)); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	ev := got[0].(event.Interrupt)
	if len(ev.ActionRequests) != 2 {
		t.Fatalf("expected 2 action requests, got %d", len(ev.ActionRequests))
	}
	if ev.ActionRequests[0].Tool != "delete_file" || ev.ActionRequests[1].Tool != "send_email" {
		t.Errorf("unexpected action order: %+v", ev.ActionRequests)
	}
	if len(ev.ReviewConfigs) != 2 {
		t.Errorf("expected 2 review configs, got %d", len(ev.ReviewConfigs))
	}
	if !ev.NeedsApproval() {
		t.Error("expected NeedsApproval")
	}
}

func TestParse_ErrorAfterOneChunk(t *testing.T) {
	p := newParser(t)
	src := func(yield func(any, error) bool) {
		if !yield(node("agent", map[string]any{"messages": []any{message.AI("partial answer")}}), nil) {
			return
		}
		yield(nil, errors.New("connection reset"))
	}

	var got []event.Event
	for ev := range p.Parse(src) {
		got = append(got, ev)
	}

	if diff := cmp.Diff([]event.Type{event.TypeContent, event.TypeError}, types(got)); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	errEv := got[1].(event.Error)
	if errEv.Message != "error parsing stream: connection reset" {
		t.Errorf("unexpected message %q", errEv.Message)
	}
	if errEv.Err == nil || errEv.Err.Error() != "connection reset" {
		t.Errorf("expected original error, got %v", errEv.Err)
	}
}

func TestParse_SourcePanicBecomesError(t *testing.T) {
	p := newParser(t)
	src := func(yield func(any, error) bool) {
		if !yield(node("agent", map[string]any{"messages": []any{message.AI("hi")}}), nil) {
			return
		}
		panic("source exploded")
	}

	var got []event.Event
	for ev := range p.Parse(src) {
		got = append(got, ev)
	}

	if len(got) != 2 {
		t.Fatalf("expected content then error, got %v", types(got))
	}
	errEv, ok := got[1].(event.Error)
	if !ok {
		t.Fatalf("expected Error last, got %T", got[1])
	}
	var pe *PanicError
	if !errors.As(errEv.Err, &pe) || pe.Value != "source exploded" {
		t.Errorf("expected *PanicError with source value, got %v", errEv.Err)
	}
}

type explodingMessage struct{}

func (explodingMessage) MessageKind() message.Kind { return message.KindAI }
func (explodingMessage) MessageContent() any       { panic("bad message") }

func TestParse_HandlerPanicBecomesError(t *testing.T) {
	p := newParser(t)

	got := collect(p,
		node("agent", map[string]any{"messages": []any{message.AI("before")}}),
		node("agent", map[string]any{"messages": []any{explodingMessage{}}}),
		node("agent", map[string]any{"messages": []any{message.AI("never")}}),
	)

	if diff := cmp.Diff([]event.Type{event.TypeContent, event.TypeError}, types(got)); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(got[1].(event.Error).Message, "bad message") {
		t.Errorf("expected panic value in message, got %q", got[1].(event.Error).Message)
	}
}

func TestParse_ConsumerPanicPropagates(t *testing.T) {
	p := newParser(t)

	defer func() {
		if v := recover(); v != "consumer" {
			t.Errorf("expected consumer panic to propagate, got %v", v)
		}
	}()
	for range p.Parse(Chunks(node("agent", map[string]any{"messages": []any{message.AI("hi")}}))) {
		panic("consumer")
	}
	t.Error("expected panic")
}

func TestParse_EarlyBreak(t *testing.T) {
	p := newParser(t)
	pulled := 0
	src := func(yield func(any, error) bool) {
		for i := 0; i < 5; i++ {
			pulled++
			if !yield(node("agent", map[string]any{"messages": []any{message.AI("a"), message.AI("b")}}), nil) {
				return
			}
		}
	}

	var got []event.Event
	for ev := range p.Parse(src) {
		got = append(got, ev)
		break
	}

	if len(got) != 1 {
		t.Errorf("expected exactly 1 event, got %d", len(got))
	}
	if pulled != 1 {
		t.Errorf("expected the source to be pulled once, got %d", pulled)
	}
}

func TestParse_EmptyStream(t *testing.T) {
	for _, mode := range []Mode{ModeUpdates, ModeMessages, ModeAuto} {
		t.Run(string(mode), func(t *testing.T) {
			got := collect(newParser(t, WithStreamMode(mode)))
			if diff := cmp.Diff([]event.Type{event.TypeComplete}, types(got)); diff != "" {
				t.Errorf("types mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ContentConcatenation(t *testing.T) {
	p := newParser(t)

	got := collect(p,
		node("agent", map[string]any{"messages": []any{
			message.Human("What's the weather?"),
			message.AI("It is "),
			message.AI([]any{map[string]any{"type": "text", "text": "sunny"}, "today"}),
		}}),
		node("writer", map[string]any{"messages": message.AI("  Enjoy!  ")}),
	)

	var b strings.Builder
	for _, c := range ofType[event.Content](got) {
		b.WriteString(c.Content)
	}
	want := "What's the weather?" + "It is" + "sunny today" + "Enjoy!"
	if b.String() != want {
		t.Errorf("expected %q, got %q", want, b.String())
	}

	contents := ofType[event.Content](got)
	if contents[0].Role != event.RoleHuman || contents[1].Role != event.RoleAssistant {
		t.Errorf("unexpected roles %q, %q", contents[0].Role, contents[1].Role)
	}
	if contents[3].Node != "writer" {
		t.Errorf("expected node writer, got %q", contents[3].Node)
	}
}

func TestParse_SkipTools(t *testing.T) {
	p := newParser(t, WithSkipTools("think_tool", "search"))

	got := collect(p,
		node("agent", map[string]any{"messages": []any{
			message.AI("", searchCall("call_1"), message.ToolCall{ID: "call_2", Name: "think_tool"}),
		}}),
		node("tools", map[string]any{"messages": []any{
			message.Tool("search", "call_1", "result"),
			message.Tool("think_tool", "call_2", `{"reflection": "hidden"}`),
			message.Tool("think_tool", "call_9", "end without start"),
		}}),
	)

	for _, ev := range got {
		switch e := ev.(type) {
		case event.ToolCallStart:
			t.Errorf("unexpected start for %s", e.Name)
		case event.ToolCallEnd:
			t.Errorf("unexpected end for %s", e.Name)
		case event.ToolExtracted:
			t.Errorf("unexpected extraction for %s", e.ToolName)
		}
	}
	if p.Pending() != 0 {
		t.Errorf("expected skipped calls not to be pending, got %d", p.Pending())
	}
}

func TestParse_EndWithoutStartDropped(t *testing.T) {
	p := newParser(t)

	got := collect(p, node("tools", map[string]any{
		"messages": []any{message.Tool("search", "call_unknown", "orphan")},
	}))

	if len(ofType[event.ToolCallEnd](got)) != 0 {
		t.Errorf("expected orphan end to be dropped, got %v", types(got))
	}
}

func TestParse_EndClosesOnce(t *testing.T) {
	p := newParser(t)

	got := collect(p,
		node("agent", map[string]any{"messages": []any{message.AI("", searchCall("call_1"))}}),
		node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "first")}}),
		node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "again")}}),
	)

	starts := map[string]bool{}
	ends := 0
	for _, ev := range got {
		switch e := ev.(type) {
		case event.ToolCallStart:
			starts[e.ID] = true
		case event.ToolCallEnd:
			ends++
			if !starts[e.ID] {
				t.Errorf("end %s has no earlier start", e.ID)
			}
		}
	}
	if ends != 1 {
		t.Errorf("expected exactly one end, got %d", ends)
	}
}

func TestParse_AutoMatchesExplicit(t *testing.T) {
	updates := []any{
		node("agent", map[string]any{"messages": []any{message.AI("Let me check.", searchCall("call_1"))}}),
		node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "Sunny")}}),
		node("agent", map[string]any{"messages": []any{message.AI("It is sunny.")}}),
	}
	multi := []any{
		Envelope{Mode: ModeMessages, Data: MessageChunk{Message: message.AIChunk("It is "), Metadata: map[string]any{"langgraph_node": "agent"}}},
		[]any{"messages", []any{message.AIChunk("sunny."), map[string]any{"langgraph_node": "agent"}}},
		Envelope{Mode: ModeUpdates, Data: updates[0]},
		[]any{"updates", updates[1]},
	}

	tests := []struct {
		name     string
		explicit Option
		chunks   []any
	}{
		{"updates", WithStreamMode(ModeUpdates), updates},
		{"multi", WithStreamModes(ModeUpdates, ModeMessages), multi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			explicit := collect(newParser(t, tt.explicit, WithClock(fixedClock)), tt.chunks...)
			auto := collect(newParser(t, WithStreamMode(ModeAuto), WithClock(fixedClock)), tt.chunks...)
			if diff := cmp.Diff(explicit, auto); diff != "" {
				t.Errorf("auto differs from explicit (-explicit +auto):\n%s", diff)
			}
		})
	}
}

func TestParse_DualModeDedup(t *testing.T) {
	p := newParser(t, WithStreamModes(ModeUpdates, ModeMessages))

	got := collect(p,
		Envelope{Mode: ModeMessages, Data: MessageChunk{Message: message.AIChunk("Hello")}},
		Envelope{Mode: ModeUpdates, Data: node("agent", map[string]any{"messages": []any{message.AI("Hello")}})},
	)

	contents := ofType[event.Content](got)
	if len(contents) != 1 || contents[0].Content != "Hello" {
		t.Errorf("expected exactly one Hello, got %+v", contents)
	}
}

func TestParse_MultiModeStructuralEvents(t *testing.T) {
	p := newParser(t, WithStreamModes(ModeUpdates, ModeMessages))

	ai := message.AI("Checking", searchCall("call_1"))
	ai.UsageMetadata = map[string]any{"input_tokens": 10, "output_tokens": 5}

	got := collect(p,
		[]any{"messages", []any{message.AIChunk("Checking"), map[string]any{"langgraph_node": "agent"}}},
		[]any{"updates", node("agent", map[string]any{"messages": []any{ai}})},
		[]any{"updates", node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "ok")}})},
		[]any{"updates", node("human", map[string]any{"messages": []any{message.Human("thanks")}})},
	)

	want := []event.Type{
		event.TypeContent,
		event.TypeToolCallStart,
		event.TypeUsage,
		event.TypeToolCallEnd,
		event.TypeComplete,
	}
	if diff := cmp.Diff(want, types(got)); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if c := got[0].(event.Content); c.Node != "agent" {
		t.Errorf("expected content node from metadata, got %q", c.Node)
	}
}

func TestParse_MultiModeSkipsMalformed(t *testing.T) {
	p := newParser(t, WithStreamModes(ModeUpdates, ModeMessages))

	got := collect(p,
		"not an envelope",
		map[string]any{"agent": map[string]any{"messages": []any{message.AI("bare update")}}},
		[]any{"custom", map[string]any{"progress": 0.5}},
		[]any{"messages", "x", "extra"},
		Envelope{Mode: "values", Data: map[string]any{}},
		[]any{ModeMessages, MessageChunk{Message: message.AIChunk("kept")}},
	)

	if diff := cmp.Diff([]event.Type{event.TypeContent, event.TypeComplete}, types(got)); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ResumeRoundTrip(t *testing.T) {
	args := map[string]any{"path": "/tmp/safe.txt", "overwrite": false}
	cmd, err := resume.Create([]resume.Decision{resume.Edit(args), resume.Approve()}, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, mode := range []Mode{ModeUpdates, ModeMessages, ModeAuto} {
		t.Run(string(mode), func(t *testing.T) {
			got := collect(newParser(t, WithStreamMode(mode)), cmd)
			if diff := cmp.Diff([]event.Type{event.TypeComplete}, types(got)); diff != "" {
				t.Errorf("types mismatch (-want +got):\n%s", diff)
			}
		})
	}

	decisions := cmd.Resume.(map[string]any)["decisions"].([]resume.Decision)
	if diff := cmp.Diff(args, decisions[0].Args); diff != "" {
		t.Errorf("args changed (-want +got):\n%s", diff)
	}
}

func TestParse_PendingAcrossParses(t *testing.T) {
	p := newParser(t)

	collect(p, node("agent", map[string]any{"messages": []any{message.AI("", searchCall("call_1"))}}))
	if p.Pending() != 1 {
		t.Fatalf("expected 1 pending call, got %d", p.Pending())
	}

	got := collect(p, node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "done")}}))
	if len(ofType[event.ToolCallEnd](got)) != 1 {
		t.Errorf("expected the second parse to close the call, got %v", types(got))
	}
}

func TestParser_Reset(t *testing.T) {
	p := newParser(t)

	collect(p, node("agent", map[string]any{"messages": []any{message.AI("", searchCall("call_1"), searchCall("call_2"))}}))
	if p.Pending() != 2 {
		t.Fatalf("expected 2 pending calls, got %d", p.Pending())
	}

	p.RegisterExtractor(extract.Func("search", "hit", func(any) (any, bool) { return "x", true }))
	p.Reset()
	if p.Pending() != 0 {
		t.Errorf("expected no pending calls after Reset, got %d", p.Pending())
	}

	got := collect(p, node("tools", map[string]any{"messages": []any{message.Tool("search", "call_1", "late")}}))
	if diff := cmp.Diff([]event.Type{event.TypeToolExtracted, event.TypeComplete}, types(got)); diff != "" {
		t.Errorf("expected extractor kept and end dropped (-want +got):\n%s", diff)
	}
}

func TestParseChunk(t *testing.T) {
	t.Run("auto rejected", func(t *testing.T) {
		p := newParser(t, WithStreamMode(ModeAuto))
		_, err := p.ParseChunk(node("agent", map[string]any{}))
		if !errors.Is(err, ErrAutoModeChunk) {
			t.Errorf("expected ErrAutoModeChunk, got %v", err)
		}
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("expected *ConfigError, got %T", err)
		}
	})

	t.Run("no complete appended", func(t *testing.T) {
		p := newParser(t)
		got, err := p.ParseChunk(node("agent", map[string]any{"messages": []any{message.AI("hi")}}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]event.Type{event.TypeContent}, types(got)); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("multi mode non-envelope", func(t *testing.T) {
		p := newParser(t, WithStreamModes(ModeUpdates, ModeMessages))
		got, err := p.ParseChunk(node("agent", map[string]any{"messages": []any{message.AI("hi")}}))
		if err != nil || got == nil || len(got) != 0 {
			t.Errorf("expected empty result, got %v (%v)", got, err)
		}
	})

	t.Run("multi mode suppresses update content", func(t *testing.T) {
		p := newParser(t, WithStreamModes(ModeUpdates, ModeMessages))
		got, _ := p.ParseChunk(Envelope{Mode: ModeUpdates, Data: node("agent", map[string]any{"messages": []any{message.AI("hi")}})})
		if len(got) != 0 {
			t.Errorf("expected no events, got %v", types(got))
		}
		got, _ = p.ParseChunk([]any{"messages", []any{message.AIChunk("hi"), map[string]any{}}})
		if len(got) != 1 {
			t.Errorf("expected one content event, got %v", types(got))
		}
	})

	t.Run("panic returned as error", func(t *testing.T) {
		p := newParser(t)
		got, err := p.ParseChunk(node("agent", map[string]any{"messages": []any{explodingMessage{}}}))
		var pe *PanicError
		if !errors.As(err, &pe) || got != nil {
			t.Errorf("expected *PanicError and no events, got %v (%v)", got, err)
		}
	})

	t.Run("shares pending table", func(t *testing.T) {
		p := newParser(t)
		if _, err := p.ParseChunk(node("agent", map[string]any{"messages": []any{message.AI("", searchCall("c1"))}})); err != nil {
			t.Fatal(err)
		}
		got, _ := p.ParseChunk(node("tools", map[string]any{"messages": []any{message.Tool("search", "c1", "ok")}}))
		if len(ofType[event.ToolCallEnd](got)) != 1 {
			t.Errorf("expected end, got %v", types(got))
		}
	})
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"unknown mode", WithStreamMode("values"), ErrUnsupportedMode},
		{"empty list", WithStreamModes(), ErrEmptyModes},
		{"auto in list", WithStreamModes(ModeUpdates, ModeAuto), ErrUnsupportedMode},
		{"unknown in list", WithStreamModes(ModeUpdates, "debug"), ErrUnsupportedMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opt)
			if p != nil {
				t.Error("expected nil parser")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Code == "" {
				t.Errorf("expected coded *ConfigError, got %v", err)
			}
		})
	}

	if _, err := New(WithRegistry(nil)); err == nil {
		t.Error("expected error for nil registry")
	}
	if _, err := New(WithClock(nil)); err == nil {
		t.Error("expected error for nil clock")
	}
}

func TestNew_Defaults(t *testing.T) {
	p := newParser(t)
	if p.Mode() != ModeUpdates || p.Modes() != nil {
		t.Errorf("expected updates mode, got %q %v", p.Mode(), p.Modes())
	}
	if diff := cmp.Diff([]string{"display_inline", "think_tool", "write_todos"}, p.Extractors()); diff != "" {
		t.Errorf("extractors mismatch (-want +got):\n%s", diff)
	}

	p = newParser(t, WithStreamModes(ModeMessages, ModeUpdates), WithDisabledExtractors("write_todos"))
	if p.Mode() != "" || len(p.Modes()) != 2 {
		t.Errorf("expected multi-mode, got %q %v", p.Mode(), p.Modes())
	}
	if !p.UnregisterExtractor("think_tool") || p.UnregisterExtractor("write_todos") {
		t.Error("expected write_todos disabled and think_tool registered")
	}
}
