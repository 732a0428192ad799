package extract

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
)

// Built-in tool names and payload types.
const (
	ReflectionTool    = "think_tool"
	ReflectionType    = "reflection"
	TodosTool         = "write_todos"
	TodosType         = "todos"
	DisplayInlineTool = "display_inline"
	DisplayInlineType = "display_inline"
)

// bracketSpan is greedy on purpose: it takes everything from the first '[' to
// the last ']'. Strings with several bracketed regions may not parse.
var bracketSpan = regexp.MustCompile(`(?s)\[.*\]`)

// Reflection returns the extractor for think_tool results.
//
// A JSON object (or map) yields its "reflection" value; any other non-blank
// string is returned verbatim.
func Reflection() Extractor {
	return Func(ReflectionTool, ReflectionType, extractReflection)
}

func extractReflection(content any) (any, bool) {
	switch v := content.(type) {
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			if obj, ok := parsed.(map[string]any); ok {
				return reflectionKey(obj)
			}
		}
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
		return v, true
	case map[string]any:
		return reflectionKey(v)
	}
	return nil, false
}

func reflectionKey(m map[string]any) (any, bool) {
	r, ok := m["reflection"]
	if !ok || r == nil {
		return nil, false
	}
	return r, true
}

// Todos returns the extractor for write_todos results. The payload is always a
// []any list of todo items.
//
// String content is searched for an embedded list first, which is parsed as a
// Python literal and then as JSON. Without brackets the whole string is parsed
// as a JSON object and its "todos" key is used. Maps use their "todos" key and
// lists are used directly. This is a best-effort parse of model-written text.
func Todos() Extractor {
	return Func(TodosTool, TodosType, extractTodos)
}

func extractTodos(content any) (any, bool) {
	var todos any
	switch v := content.(type) {
	case string:
		todos = todosFromString(v)
	case map[string]any:
		todos = todosFromKey(v)
	default:
		todos = v
	}
	list := asList(todos)
	if list == nil {
		return nil, false
	}
	return list, true
}

func todosFromString(s string) any {
	if span := bracketSpan.FindString(s); span != "" {
		if v, err := parsePyLiteral(span); err == nil {
			return v
		}
		var v any
		if err := json.Unmarshal([]byte(span), &v); err == nil {
			return v
		}
		return nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil
	}
	if obj, ok := parsed.(map[string]any); ok {
		return todosFromKey(obj)
	}
	return parsed
}

func todosFromKey(m map[string]any) any {
	todos := m["todos"]
	if s, ok := todos.(string); ok {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return todos
}

// asList returns v as a []any when it is any kind of slice, or nil. A nil or
// non-slice value yields nil; an empty slice yields an empty, non-nil list.
func asList(v any) []any {
	if v == nil {
		return nil
	}
	if l, ok := v.([]any); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// DisplayInline returns the extractor for display_inline results. The payload is
// the result object itself, which must carry a "display_type" key.
func DisplayInline() Extractor {
	return Func(DisplayInlineTool, DisplayInlineType, extractDisplayInline)
}

func extractDisplayInline(content any) (any, bool) {
	var obj map[string]any
	switch v := content.(type) {
	case map[string]any:
		obj = v
	case string:
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			return nil, false
		}
	default:
		return nil, false
	}
	if _, ok := obj["display_type"]; !ok {
		return nil, false
	}
	return obj, true
}
