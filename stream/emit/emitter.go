// Package emit provides observability sinks for stream parsing.
//
// A Parser reports one Event per normalized event it yields, plus
// parse_start and parse_end markers, to the Emitter configured with
// stream.WithEmitter. Emitters are independent from the event values handed to
// the consumer: they observe the parse, they do not take part in it.
package emit

// Emitter receives observability events from a running parse.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files
//   - Distributed tracing: OpenTelemetry
//   - In-memory capture for tests and debugging
//
// Implementations should be:
//   - Non-blocking: Emit runs on the consumer's iteration path
//   - Thread-safe: several parsers may share one emitter
//   - Resilient: failures are handled internally, never panicked
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit should not panic. Errors should be logged internally.
	Emit(event Event)
}
