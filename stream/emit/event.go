package emit

// Event is an observability record describing one step of a parse.
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Keep them in memory for inspection
type Event struct {
	// RunID identifies the parse that emitted this event. Every call to
	// Parse or ParseSource gets a fresh id.
	RunID string

	// Step is the 1-based index of the raw chunk that caused the event.
	// Zero for parse_start. Terminal events and parse_end carry the count
	// of chunks read.
	Step int

	// NodeID is the graph node the event is attributed to. Empty when the
	// event carries no node.
	NodeID string

	// Msg names the event: a stream event type such as "content" or
	// "tool_call_end", or a lifecycle marker such as "parse_start".
	Msg string

	// Meta holds the event's record form. Common keys:
	//   - "type": the stream event type
	//   - "duration_ms": tool call duration in milliseconds
	//   - "error": error message on failures
	//   - "input_tokens", "output_tokens", "total_tokens": usage counts
	Meta map[string]any
}

// Lifecycle markers emitted around every parse.
const (
	MsgParseStart = "parse_start"
	MsgParseEnd   = "parse_end"
)
