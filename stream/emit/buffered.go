package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory, grouped by
// run id.
//
// Features:
//   - Thread-safe concurrent access
//   - Query by runID with optional filtering
//   - Filter by nodeID, message, step range
//   - Clear events by runID or all events
//
// Warning: every event is kept until Clear is called. Use it for tests,
// debugging and short-lived tools rather than long-running services.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	parser, _ := stream.New(stream.WithEmitter(emitter))
//	for range parser.Parse(src) {
//	}
//
//	for _, runID := range emitter.Runs() {
//	    ends := emitter.GetHistoryWithFilter(runID, emit.HistoryFilter{Msg: "tool_call_end"})
//	    fmt.Println(runID, len(ends))
//	}
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
	runs   []string           // runIDs in first-seen order
}

// HistoryFilter specifies criteria for filtering history. Set fields are
// combined with AND logic.
//
// Fields:
//   - NodeID: Filter by graph node
//   - Msg: Filter by event name (e.g., "content", "error")
//   - MinStep: Filter events with step >= MinStep (nil = no lower bound)
//   - MaxStep: Filter events with step <= MaxStep (nil = no upper bound)
type HistoryFilter struct {
	NodeID  string // Filter by node ID (empty = no filter)
	Msg     string // Filter by message (empty = no filter)
	MinStep *int   // Minimum step number (nil = no filter)
	MaxStep *int   // Maximum step number (nil = no filter)
}

// NewBufferedEmitter creates a new BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, seen := b.events[event.RunID]; !seen {
		b.runs = append(b.runs, event.RunID)
	}
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// Runs returns the run ids seen so far, in the order they first appeared.
func (b *BufferedEmitter) Runs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.runs))
	copy(out, b.runs)
	return out
}

// GetHistory returns a copy of all events for runID in emission order. It
// returns an empty slice for an unknown runID.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	return b.GetHistoryWithFilter(runID, HistoryFilter{})
}

// GetHistoryWithFilter returns a copy of the events for runID that match filter,
// in emission order.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if matchesFilter(event, filter) {
			result = append(result, event)
		}
	}
	return result
}

func matchesFilter(event Event, filter HistoryFilter) bool {
	if filter.NodeID != "" && event.NodeID != filter.NodeID {
		return false
	}
	if filter.Msg != "" && event.Msg != filter.Msg {
		return false
	}
	if filter.MinStep != nil && event.Step < *filter.MinStep {
		return false
	}
	if filter.MaxStep != nil && event.Step > *filter.MaxStep {
		return false
	}
	return true
}

// Clear removes stored events for runID, or every event when runID is empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		b.runs = nil
		return
	}

	delete(b.events, runID)
	for i, id := range b.runs {
		if id == runID {
			b.runs = append(b.runs[:i], b.runs[i+1:]...)
			break
		}
	}
}
