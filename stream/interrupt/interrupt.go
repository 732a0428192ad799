// Package interrupt normalizes the runtime's human-in-the-loop interrupt markers
// into action requests and review configs.
//
// The same payload has shipped in several shapes over time. Reconcile accepts
// all of them:
//
//   - a one-element list holding a wrapper (Interrupt or any Valuer) whose value
//     is a mapping with "action_requests" and "review_configs"
//   - a list of several such wrappers, whose requests and configs are combined
//   - a two-element list whose elements are the two lists themselves
//   - a plain mapping with the two keys
//   - an object exposing them, either through the Requests interface or as
//     JSON-tagged struct fields
//
// Shapes it does not recognize produce empty results, never an error.
package interrupt

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/dshills/langgraph-stream/stream/event"
)

// Key is the chunk key under which the runtime reports an interrupt.
const Key = "__interrupt__"

// Interrupt is the runtime's wrapper around an interrupt value.
type Interrupt struct {
	Value any    `json:"value"`
	ID    string `json:"id,omitempty"`
}

// InterruptValue implements Valuer.
func (i Interrupt) InterruptValue() any { return i.Value }

// Valuer is implemented by interrupt wrappers.
type Valuer interface {
	InterruptValue() any
}

// Requests is implemented by objects that expose the two lists directly.
type Requests interface {
	ActionRequests() []any
	ReviewConfigs() []any
}

// Reconcile converts a raw interrupt marker into serialized action requests and
// review configs.
func Reconcile(raw any) ([]event.ActionRequest, []event.ReviewConfig) {
	rawActions, rawConfigs := Parse(raw)

	actions := make([]event.ActionRequest, 0, len(rawActions))
	for i, a := range rawActions {
		actions = append(actions, SerializeAction(a, i))
	}
	configs := make([]event.ReviewConfig, 0, len(rawConfigs))
	for _, c := range rawConfigs {
		configs = append(configs, SerializeReviewConfig(c))
	}
	return actions, configs
}

// Parse returns the unserialized action requests and review configs carried by
// raw, aggregated across every wrapper it contains.
func Parse(raw any) (actions, configs []any) {
	items, isList := toSlice(raw)
	if !isList {
		return fromObject(raw)
	}

	switch {
	case len(items) == 0:
		return nil, nil
	case isValuer(items[0]):
		return aggregate(items)
	case len(items) == 1:
		return fromObject(items[0])
	case len(items) == 2:
		a, aok := toSlice(items[0])
		c, cok := toSlice(items[1])
		if aok && cok {
			return a, c
		}
	}
	return aggregate(items)
}

func aggregate(items []any) (actions, configs []any) {
	for _, item := range items {
		a, c := fromObject(item)
		actions = append(actions, a...)
		configs = append(configs, c...)
	}
	return actions, configs
}

func fromObject(obj any) (actions, configs []any) {
	switch v := obj.(type) {
	case nil:
		return nil, nil
	case Valuer:
		inner := v.InterruptValue()
		if isValuer(inner) {
			return nil, nil
		}
		return fromObject(inner)
	case Requests:
		return v.ActionRequests(), v.ReviewConfigs()
	}

	m, ok := asMap(obj)
	if !ok {
		return nil, nil
	}
	actions, _ = toSlice(m["action_requests"])
	configs, _ = toSlice(m["review_configs"])
	return actions, configs
}

// SerializeAction normalizes one action request. index is the action's position
// and is used to synthesize a tool call id when none is given.
func SerializeAction(a any, index int) event.ActionRequest {
	var out event.ActionRequest
	switch v := a.(type) {
	case event.ActionRequest:
		out = v
	case *event.ActionRequest:
		if v != nil {
			out = *v
		}
	default:
		m, _ := asMap(a)
		out.Tool = cast.ToString(m["tool"])
		if out.Tool == "" {
			out.Tool = cast.ToString(m["name"])
		}
		if out.Tool == "" {
			out.Tool = cast.ToString(m["action_name"])
		}
		out.ToolCallID = cast.ToString(m["tool_call_id"])
		out.Args = toArgs(m["args"])
		out.Description = cast.ToString(m["description"])
	}

	if out.ToolCallID == "" {
		out.ToolCallID = fmt.Sprintf("call_%d", index)
	}
	if out.Args == nil {
		out.Args = map[string]any{}
	}
	return out
}

// SerializeReviewConfig normalizes one review config.
func SerializeReviewConfig(c any) event.ReviewConfig {
	switch v := c.(type) {
	case event.ReviewConfig:
		if v.AllowedDecisions == nil {
			v.AllowedDecisions = []string{}
		}
		return v
	case *event.ReviewConfig:
		if v != nil {
			return SerializeReviewConfig(*v)
		}
	}

	m, _ := asMap(c)
	allowed := cast.ToStringSlice(m["allowed_decisions"])
	if allowed == nil {
		allowed = []string{}
	}
	return event.ReviewConfig{AllowedDecisions: allowed}
}

func isValuer(v any) bool {
	_, ok := v.(Valuer)
	return ok
}

func toArgs(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return map[string]any{}
	}
	return m
}

// toSlice returns the elements of a slice or array value.
func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asMap views v as a string-keyed mapping. Structs and other maps are converted
// through their JSON form, which makes JSON-tagged fields act as attributes.
func asMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, false
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}
