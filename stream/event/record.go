package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the flat, JSON-safe form of an event used by renderers, emitters
// and transports. It always has a "type" and a "timestamp" key.
type Record map[string]any

// ToRecord converts ev to a Record. Field names are snake_case; optional fields
// that are unset are present with a nil value.
//
// When maxResultLen is positive, a string Result on a ToolCallEnd longer than
// maxResultLen runes is cut to that length and suffixed with "...".
//
// Values that encoding/json cannot marshal are replaced by their fmt string form,
// so json.Marshal on the returned record never fails.
func ToRecord(ev Event, maxResultLen int) Record {
	r := Record{
		"type":      string(ev.Type()),
		"timestamp": ev.Time().Format(time.RFC3339Nano),
	}

	switch e := ev.(type) {
	case Content:
		r["content"] = e.Content
		r["role"] = string(e.Role)
		r["node"] = optional(e.Node)
	case ToolCallStart:
		r["id"] = e.ID
		r["name"] = e.Name
		r["args"] = jsonSafe(e.Args)
		r["node"] = optional(e.Node)
	case ToolCallEnd:
		r["id"] = e.ID
		r["name"] = e.Name
		r["result"] = truncateResult(jsonSafe(e.Result), maxResultLen)
		r["status"] = string(e.Status)
		r["error_message"] = optional(e.ErrorMessage)
		if e.DurationMS != nil {
			r["duration_ms"] = *e.DurationMS
		} else {
			r["duration_ms"] = nil
		}
	case ToolExtracted:
		r["tool_name"] = e.ToolName
		r["extracted_type"] = e.ExtractedType
		r["data"] = jsonSafe(e.Data)
	case Interrupt:
		actions := make([]any, 0, len(e.ActionRequests))
		for _, a := range e.ActionRequests {
			actions = append(actions, map[string]any{
				"tool":         a.Tool,
				"tool_call_id": a.ToolCallID,
				"args":         jsonSafe(a.Args),
				"description":  optional(a.Description),
			})
		}
		configs := make([]any, 0, len(e.ReviewConfigs))
		for _, rc := range e.ReviewConfigs {
			allowed := rc.AllowedDecisions
			if allowed == nil {
				allowed = []string{}
			}
			configs = append(configs, map[string]any{"allowed_decisions": allowed})
		}
		r["action_requests"] = actions
		r["review_configs"] = configs
		r["needs_approval"] = e.NeedsApproval()
		r["raw_value"] = jsonSafe(e.RawValue)
	case StateUpdate:
		r["node"] = e.Node
		r["key"] = e.Key
		r["value"] = jsonSafe(e.Value)
	case Usage:
		r["input_tokens"] = e.InputTokens
		r["output_tokens"] = e.OutputTokens
		r["total_tokens"] = e.TotalTokens
		r["node"] = optional(e.Node)
	case Complete:
	case Error:
		r["error"] = e.Message
		if e.Err != nil {
			r["exception"] = e.Err.Error()
		} else {
			r["exception"] = nil
		}
	}
	return r
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func jsonSafe(v any) any {
	if v == nil {
		return nil
	}
	if !marshals(v) {
		return fmt.Sprint(v)
	}
	return v
}

// marshals reports whether v encodes as JSON. A panicking MarshalJSON counts
// as a failure.
func marshals(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_, err := json.Marshal(v)
	return err == nil
}

func truncateResult(v any, max int) any {
	s, ok := v.(string)
	if !ok || max <= 0 {
		return v
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
