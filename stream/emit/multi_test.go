package emit

import "testing"

func TestMultiEmitter(t *testing.T) {
	first := NewBufferedEmitter()
	second := NewBufferedEmitter()
	emitter := NewMultiEmitter(first, nil, NewNullEmitter(), second)

	emitter.Emit(Event{RunID: "run", Msg: "content"})
	emitter.Emit(Event{RunID: "run", Msg: "complete"})

	for i, b := range []*BufferedEmitter{first, second} {
		history := b.GetHistory("run")
		if len(history) != 2 || history[1].Msg != "complete" {
			t.Errorf("emitter %d: expected both events in order, got %+v", i, history)
		}
	}
}

func TestNullEmitter(t *testing.T) {
	var emitter Emitter = NewNullEmitter()
	emitter.Emit(Event{RunID: "run", Msg: "content", Meta: map[string]any{"x": 1}})
}
