package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// LogEmitter implements Emitter by writing one line per event to a writer.
//
// Text mode (the default) prints the event name followed by key=value pairs.
// Meta keys are sorted; "type" and "timestamp" are left out because they
// repeat the event name and the line order, and nil values are dropped:
//
//	[tool_call_end] run=4b1c... step=2 node=tools duration_ms=12.5 id=call_1 name=search status=success
//
// JSON mode writes the whole event, one object per line:
//
//	{"runID":"4b1c...","step":2,"nodeID":"tools","msg":"tool_call_end","meta":{...}}
//
// Usage:
//
//	emitter := emit.NewLogEmitter(os.Stderr, false)
//	parser, err := stream.New(stream.WithEmitter(emitter))
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a new LogEmitter. A nil writer means os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{
		writer:   writer,
		jsonMode: jsonMode,
	}
}

// Emit writes an event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID  string         `json:"runID"`
		Step   int            `json:"step"`
		NodeID string         `json:"nodeID"`
		Msg    string         `json:"msg"`
		Meta   map[string]any `json:"meta"`
	}{
		RunID:  event.RunID,
		Step:   event.Step,
		NodeID: event.NodeID,
		Msg:    event.Msg,
		Meta:   event.Meta,
	})
	if err != nil {
		fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}

	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] run=%s step=%d", event.Msg, event.RunID, event.Step)
	if event.NodeID != "" {
		fmt.Fprintf(&b, " node=%s", event.NodeID)
	}

	keys := make([]string, 0, len(event.Meta))
	for k, v := range event.Meta {
		if v == nil || k == "type" || k == "timestamp" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, textValue(event.Meta[k]))
	}

	b.WriteByte('\n')
	io.WriteString(l.writer, b.String())
}

// textValue formats a meta value for text mode. Strings containing spaces or
// quotes are quoted and composite values are written as JSON.
func textValue(v any) string {
	switch x := v.(type) {
	case string:
		if x == "" || strings.ContainsAny(x, " \t\n\"=") {
			return strconv.Quote(x)
		}
		return x
	case int, int64, float64, bool:
		return fmt.Sprint(x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}
	return string(data)
}
