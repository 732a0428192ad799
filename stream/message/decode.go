package message

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// toolEchoPattern matches the Python-repr echo of a tool_use block that some
// model integrations leave in the text content of a message with tool calls.
var toolEchoPattern = regexp.MustCompile(
	`(?s)\{'id':\s*'[^']+',\s*'input':\s*\{.*?\},\s*'name':\s*'[^']+',\s*'type':\s*'tool_use'\}`,
)

var errorPrefixes = []string{"error:", "failed:", "exception:", "traceback"}

// KindOf returns the Kind of m. Plain maps are adapted first; values that
// implement no adapter interface are KindUnknown.
func KindOf(m any) Kind {
	if t, ok := Adapt(m).(Typed); ok {
		return t.MessageKind()
	}
	return KindUnknown
}

// TypeName returns the runtime class name of m. It is only meant for routing
// and diagnostics.
func TypeName(m any) string {
	return KindOf(m).String()
}

// Content returns the text content of m.
//
// String content is returned verbatim. A list of content blocks is joined with
// single spaces, using each block's "text" field when it has one and the
// block's string form otherwise. Anything else is stringified. A message
// without content yields "".
func Content(m any) string {
	hc, ok := Adapt(m).(HasContent)
	if !ok {
		return ""
	}
	return ContentString(hc.MessageContent())
}

// ContentString applies the Content rules to a raw content value.
func ContentString(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case []map[string]any:
		parts := make([]string, 0, len(v))
		for _, block := range v {
			parts = append(parts, blockText(block))
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, block := range v {
			if mb, ok := block.(map[string]any); ok {
				parts = append(parts, blockText(mb))
				continue
			}
			parts = append(parts, Stringify(block))
		}
		return strings.Join(parts, " ")
	}
	return Stringify(c)
}

func blockText(block map[string]any) string {
	if text, ok := block["text"]; ok {
		return Stringify(text)
	}
	return Stringify(block)
}

// Stringify renders v as text: strings as is, Stringers and errors through
// their methods, JSON-encodable values as compact JSON, anything else with fmt.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	}
	if b, ok := marshal(v); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

// marshal encodes v as JSON, treating a panicking MarshalJSON as a failure.
func marshal(v any) (b []byte, ok bool) {
	defer func() {
		if recover() != nil {
			b, ok = nil, false
		}
	}()
	b, err := json.Marshal(v)
	return b, err == nil
}

// CleanToolEcho removes stringified tool_use blocks from s and trims the result.
// Callers should only apply it to messages that also carry tool calls.
func CleanToolEcho(s string) string {
	return strings.TrimSpace(toolEchoPattern.ReplaceAllString(s, ""))
}

// ToolCalls returns the tool calls requested by m, or nil.
func ToolCalls(m any) []ToolCall {
	htc, ok := Adapt(m).(HasToolCalls)
	if !ok {
		return nil
	}
	calls := slices.Clone(htc.MessageToolCalls())
	for i := range calls {
		if calls[i].Args == nil {
			calls[i].Args = map[string]any{}
		}
	}
	return calls
}

// NormalizeToolCalls converts a raw tool_calls value into ToolCalls. Entries may
// be ToolCall values, pointers, or maps in either the runtime's
// {"id", "name", "args"} form or the OpenAI {"id", "function": {"name",
// "arguments"}} form. Arguments encoded as a JSON string are decoded. Entries
// of any other type are skipped.
func NormalizeToolCalls(raw any) []ToolCall {
	if raw == nil {
		return nil
	}
	var out []ToolCall
	add := func(entry any) {
		switch tc := entry.(type) {
		case ToolCall:
			tc.Args = toArgs(tc.Args)
			out = append(out, tc)
		case *ToolCall:
			if tc != nil {
				out = append(out, ToolCall{ID: tc.ID, Name: tc.Name, Args: toArgs(tc.Args)})
			}
		case map[string]any:
			out = append(out, toolCallFromMap(tc))
		}
	}

	switch v := raw.(type) {
	case []ToolCall:
		for _, tc := range v {
			add(tc)
		}
	case []*ToolCall:
		for _, tc := range v {
			add(tc)
		}
	case []map[string]any:
		for _, tc := range v {
			add(tc)
		}
	default:
		for _, entry := range toSlice(raw) {
			add(entry)
		}
	}
	return out
}

func toolCallFromMap(m map[string]any) ToolCall {
	tc := ToolCall{
		ID:   cast.ToString(m["id"]),
		Name: cast.ToString(m["name"]),
		Args: toArgs(m["args"]),
	}
	if fn, ok := m["function"].(map[string]any); ok && tc.Name == "" {
		tc.Name = cast.ToString(fn["name"])
		tc.Args = toArgs(fn["arguments"])
	}
	return tc
}

func toArgs(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return map[string]any{}
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return map[string]any{}
	}
	return m
}

// DetectError reports whether the tool result m represents a failure, and the
// message to surface for it. The checks run in order and the first match wins:
// an explicit "error" status, a mapping content with a truthy "error" key, and
// string content starting with a known error prefix.
func DetectError(m any) (bool, string) {
	m = Adapt(m)

	var content any
	if hc, ok := m.(HasContent); ok {
		content = hc.MessageContent()
	}

	if hs, ok := m.(HasStatus); ok && hs.MessageStatus() == "error" {
		msg := Stringify(content)
		if msg == "" {
			msg = "Unknown error"
		}
		return true, msg
	}

	if cm, ok := content.(map[string]any); ok {
		if errVal, present := cm["error"]; present && Truthy(errVal) {
			return true, Stringify(errVal)
		}
	}

	if s, ok := content.(string); ok {
		lower := strings.ToLower(strings.TrimSpace(s))
		for _, prefix := range errorPrefixes {
			if strings.HasPrefix(lower, prefix) {
				return true, s
			}
		}
	}

	return false, ""
}

// UsageOf returns the usage metadata of m when it is present and non-empty.
func UsageOf(m any) (map[string]any, bool) {
	hu, ok := Adapt(m).(HasUsage)
	if !ok {
		return nil, false
	}
	u := hu.MessageUsage()
	return u, len(u) > 0
}

// UsageCounts reads input, output and total token counts from usage metadata.
// A missing total is computed as input plus output.
func UsageCounts(u map[string]any) (input, output, total int) {
	input = cast.ToInt(u["input_tokens"])
	output = cast.ToInt(u["output_tokens"])
	if t, ok := u["total_tokens"]; ok && t != nil {
		total = cast.ToInt(t)
	} else {
		total = input + output
	}
	return input, output, total
}

// Name returns the tool name of a tool result, or "".
func Name(m any) string {
	if tr, ok := Adapt(m).(HasToolResult); ok {
		return tr.MessageName()
	}
	return ""
}

// ToolCallID returns the id of the call a tool result answers, or "".
func ToolCallID(m any) string {
	if tr, ok := Adapt(m).(HasToolResult); ok {
		return tr.MessageToolCallID()
	}
	return ""
}

// Artifact returns the artifact attached to a tool result, or nil.
func Artifact(m any) any {
	if tr, ok := Adapt(m).(HasToolResult); ok {
		return tr.MessageArtifact()
	}
	return nil
}

// RawContent returns the unprocessed content of m, or nil.
func RawContent(m any) any {
	if hc, ok := Adapt(m).(HasContent); ok {
		return hc.MessageContent()
	}
	return nil
}

// Truthy follows the usual dynamic-language notion of truth: nil, false, zero
// numbers and empty strings or collections are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// toSlice returns the elements of any slice or array value, or nil.
func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// List normalizes a message list value. A single message becomes a one-element
// list; nil becomes an empty list.
func List(v any) []any {
	if v == nil {
		return nil
	}
	if _, isMap := v.(map[string]any); isMap {
		return []any{v}
	}
	if s := toSlice(v); s != nil {
		return s
	}
	return []any{v}
}
