// Package event defines the closed vocabulary of typed events produced by the
// stream parser.
//
// Every raw chunk read from a graph runtime is normalized into zero or more
// values of the Event interface. The set of variants is sealed: only the types
// declared in this package implement Event, so consumers can switch on them
// exhaustively:
//
//	for ev := range parser.Parse(src) {
//	    switch e := ev.(type) {
//	    case event.Content:
//	        fmt.Print(e.Content)
//	    case event.ToolCallStart:
//	        fmt.Printf("\n[%s] %v\n", e.Name, e.Args)
//	    case event.Interrupt:
//	        // ask the user, then resume
//	    case event.Error:
//	        log.Println(e.Message)
//	    }
//	}
package event

import "time"

// Type is the discriminator carried by every event and by its record form.
type Type string

// Event types.
const (
	TypeContent       Type = "content"
	TypeToolCallStart Type = "tool_call_start"
	TypeToolCallEnd   Type = "tool_call_end"
	TypeToolExtracted Type = "tool_extracted"
	TypeInterrupt     Type = "interrupt"
	TypeStateUpdate   Type = "state_update"
	TypeUsage         Type = "usage"
	TypeComplete      Type = "complete"
	TypeError         Type = "error"
)

// Role identifies who authored a unit of content.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleHuman     Role = "human"
)

// Status is the outcome of a tool call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Default decisions offered for an interrupt whose review configs name none.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
	DecisionEdit    = "edit"
)

// Event is implemented by every variant in this package and nothing else.
type Event interface {
	// Type returns the event's discriminator.
	Type() Type

	// Time returns when the event was created.
	Time() time.Time

	sealed()
}

// Content is a unit of generated or user text attributed to a graph node.
type Content struct {
	Content   string
	Role      Role
	Node      string // empty when the producing node is unknown
	Timestamp time.Time
}

// ToolCallStart is a tool invocation request. ID correlates it with the
// ToolCallEnd that eventually closes it.
type ToolCallStart struct {
	ID        string
	Name      string
	Args      map[string]any
	Node      string
	Timestamp time.Time
}

// ToolCallEnd is the terminal outcome of a previously started tool call.
type ToolCallEnd struct {
	ID           string
	Name         string
	Result       any
	Status       Status
	ErrorMessage string   // set only when Status is StatusError
	DurationMS   *float64 // nil when no start time was known
	Timestamp    time.Time
}

// ToolExtracted carries a structured payload that a registered extractor pulled
// out of a tool result. It may appear alongside the ToolCallEnd of the same call.
type ToolExtracted struct {
	ToolName      string
	ExtractedType string
	Data          any
	Timestamp     time.Time
}

// ActionRequest is a tool call awaiting a human decision.
type ActionRequest struct {
	Tool        string
	ToolCallID  string
	Args        map[string]any
	Description string
}

// ReviewConfig lists the decisions a reviewer may take for an action.
type ReviewConfig struct {
	AllowedDecisions []string
}

// Interrupt signals that the runtime suspended and is waiting for a decision.
// RawValue holds the runtime's marker exactly as it was received.
type Interrupt struct {
	ActionRequests []ActionRequest
	ReviewConfigs  []ReviewConfig
	RawValue       any
	Timestamp      time.Time
}

// NeedsApproval reports whether the interrupt carries at least one action request.
func (e Interrupt) NeedsApproval() bool {
	return len(e.ActionRequests) > 0
}

// AllowedDecisions returns the union of decisions named by the review configs,
// in first-seen order. When no config names any, approve and reject are allowed.
func (e Interrupt) AllowedDecisions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rc := range e.ReviewConfigs {
		for _, d := range rc.AllowedDecisions {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return []string{DecisionApprove, DecisionReject}
	}
	return out
}

// StateUpdate is a change to a non-message state key. The parser only emits it
// when state updates are enabled.
type StateUpdate struct {
	Node      string
	Key       string
	Value     any
	Timestamp time.Time
}

// Usage reports token consumption for one model response.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Node         string
	Timestamp    time.Time
}

// Complete is the last event of a stream that ended normally.
type Complete struct {
	Timestamp time.Time
}

// Error is the last event of a stream that failed. It replaces Complete.
type Error struct {
	Message   string
	Err       error
	Timestamp time.Time
}

func (e Content) Type() Type       { return TypeContent }
func (e ToolCallStart) Type() Type { return TypeToolCallStart }
func (e ToolCallEnd) Type() Type   { return TypeToolCallEnd }
func (e ToolExtracted) Type() Type { return TypeToolExtracted }
func (e Interrupt) Type() Type     { return TypeInterrupt }
func (e StateUpdate) Type() Type   { return TypeStateUpdate }
func (e Usage) Type() Type         { return TypeUsage }
func (e Complete) Type() Type      { return TypeComplete }
func (e Error) Type() Type         { return TypeError }

func (e Content) Time() time.Time       { return e.Timestamp }
func (e ToolCallStart) Time() time.Time { return e.Timestamp }
func (e ToolCallEnd) Time() time.Time   { return e.Timestamp }
func (e ToolExtracted) Time() time.Time { return e.Timestamp }
func (e Interrupt) Time() time.Time     { return e.Timestamp }
func (e StateUpdate) Time() time.Time   { return e.Timestamp }
func (e Usage) Time() time.Time         { return e.Timestamp }
func (e Complete) Time() time.Time      { return e.Timestamp }
func (e Error) Time() time.Time         { return e.Timestamp }

func (Content) sealed()       {}
func (ToolCallStart) sealed() {}
func (ToolCallEnd) sealed()   {}
func (ToolExtracted) sealed() {}
func (Interrupt) sealed()     {}
func (StateUpdate) sealed()   {}
func (Usage) sealed()         {}
func (Complete) sealed()      {}
func (Error) sealed()         {}

// Node returns the graph node an event is attributed to, or "" for events that
// carry no node.
func Node(ev Event) string {
	switch e := ev.(type) {
	case Content:
		return e.Node
	case ToolCallStart:
		return e.Node
	case StateUpdate:
		return e.Node
	case Usage:
		return e.Node
	}
	return ""
}

// IsTerminal reports whether ev ends a stream.
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case Complete, Error:
		return true
	}
	return false
}
