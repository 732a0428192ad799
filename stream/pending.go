package stream

import (
	"sync"

	"github.com/dshills/langgraph-stream/stream/event"
)

// pendingTable tracks tool calls that have started but not ended, keyed by call
// id. It belongs to one Parser and outlives individual parses until Reset.
type pendingTable struct {
	mu    sync.Mutex
	calls map[string]event.ToolCallStart
}

func newPendingTable() *pendingTable {
	return &pendingTable{calls: make(map[string]event.ToolCallStart)}
}

// put records start, replacing any earlier start with the same id.
func (t *pendingTable) put(start event.ToolCallStart) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[start.ID] = start
	return len(t.calls)
}

// pop removes and returns the start recorded for id.
func (t *pendingTable) pop(id string) (event.ToolCallStart, bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	return start, ok, len(t.calls)
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func (t *pendingTable) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.calls)
}
