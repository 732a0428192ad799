// Package resume builds the input that resumes a graph run after an interrupt.
//
// A run paused on an event.Interrupt is resumed with a Command whose Resume
// payload is either a list of decisions, one per action request, or a single raw
// value:
//
//	decisions, err := resume.Decide(ev, func(a event.ActionRequest) resume.Decision {
//	    if a.Tool == "delete_file" {
//	        return resume.Reject("not allowed")
//	    }
//	    return resume.Approve()
//	})
//	if err != nil {
//	    return err
//	}
//	cmd, err := resume.Create(decisions, nil)
package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/langgraph-stream/stream/event"
)

var (
	// ErrMissingInput is returned when neither decisions nor a value is given.
	ErrMissingInput = errors.New("must provide either decisions or value")

	// ErrConflictingInput is returned when both decisions and a value are given.
	ErrConflictingInput = errors.New("cannot provide both decisions and value")

	// ErrDecisionNotAllowed is returned when a decision's type is not among the
	// interrupt's allowed decisions.
	ErrDecisionNotAllowed = errors.New("decision not allowed")

	// ErrInvalidAgentInput is returned by PrepareInput unless exactly one input
	// is set.
	ErrInvalidAgentInput = errors.New("invalid agent input")
)

// Decision is a reviewer's answer to one action request.
type Decision struct {
	Type    string         `json:"type"`
	Args    map[string]any `json:"args,omitempty"`
	Message string         `json:"message,omitempty"`
}

// MarshalJSON writes args whenever they are set, so an edit with an empty
// argument map keeps it.
func (d Decision) MarshalJSON() ([]byte, error) {
	type plain Decision
	if d.Args == nil {
		return json.Marshal(plain(d))
	}
	return json.Marshal(struct {
		plain
		Args map[string]any `json:"args"`
	}{plain(d), d.Args})
}

// Approve returns an approve decision.
func Approve() Decision {
	return Decision{Type: event.DecisionApprove}
}

// Reject returns a reject decision with an optional explanation for the model.
func Reject(message string) Decision {
	return Decision{Type: event.DecisionReject, Message: message}
}

// Edit returns a decision that runs the action with replacement arguments.
func Edit(args map[string]any) Decision {
	return Decision{Type: event.DecisionEdit, Args: args}
}

// Command is the runtime's resume input. It marshals as {"resume": ...}.
type Command struct {
	Resume any `json:"resume"`
}

// Create builds a resume Command from exactly one of decisions or value. A
// non-nil but empty decisions slice counts as given.
func Create(decisions []Decision, value any) (Command, error) {
	switch {
	case decisions == nil && value == nil:
		return Command{}, ErrMissingInput
	case decisions != nil && value != nil:
		return Command{}, ErrConflictingInput
	case decisions != nil:
		return Command{Resume: map[string]any{"decisions": decisions}}, nil
	}
	return Command{Resume: value}, nil
}

// Decide asks fn for one decision per action request of ev and checks each
// against ev.AllowedDecisions.
func Decide(ev event.Interrupt, fn func(event.ActionRequest) Decision) ([]Decision, error) {
	allowed := ev.AllowedDecisions()
	decisions := make([]Decision, 0, len(ev.ActionRequests))
	for _, action := range ev.ActionRequests {
		d := fn(action)
		if !slices.Contains(allowed, d.Type) {
			return nil, fmt.Errorf("%w: %q for %s (allowed: %v)", ErrDecisionNotAllowed, d.Type, action.Tool, allowed)
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// AgentInput is the next input for an agent: a new user message, decisions for a
// pending interrupt, or a raw value passed through untouched. Exactly one field
// must be set.
type AgentInput struct {
	Message   *string
	Decisions []Decision
	Raw       any
}

// PrepareInput converts in into the value to hand to the runtime.
func PrepareInput(in AgentInput) (any, error) {
	set := 0
	if in.Message != nil {
		set++
	}
	if in.Decisions != nil {
		set++
	}
	if in.Raw != nil {
		set++
	}
	switch {
	case set == 0:
		return nil, fmt.Errorf("%w: must provide one of message, decisions, or raw input", ErrInvalidAgentInput)
	case set > 1:
		return nil, fmt.Errorf("%w: provide only one of message, decisions, or raw input", ErrInvalidAgentInput)
	}

	switch {
	case in.Message != nil:
		return map[string]any{
			"messages": []any{map[string]any{"role": "user", "content": *in.Message}},
		}, nil
	case in.Decisions != nil:
		return Create(in.Decisions, nil)
	}
	return in.Raw, nil
}
