package stream

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Update is an "updates" mode chunk, node name to node state, in the order the
// runtime reported them. Node states may themselves be *Update or
// map[string]any.
//
// Plain map[string]any chunks are accepted too; their keys are visited in
// sorted order.
type Update = orderedmap.OrderedMap[string, any]

// NewUpdate returns an empty Update.
func NewUpdate() *Update {
	return orderedmap.New[string, any]()
}

// MessageChunk is a "messages" mode chunk: one streamed message fragment and
// the runtime metadata for the step that produced it. Metadata["langgraph_node"]
// names the node.
type MessageChunk struct {
	Message  any
	Metadata map[string]any
}

// Envelope is a chunk of a multi-mode stream, tagged with the mode whose
// shape Data has. A []any{"updates", data} pair is treated the same way.
type Envelope struct {
	Mode Mode
	Data any
}

// asEnvelope reports whether chunk is shaped like an envelope. The mode is not
// validated.
func asEnvelope(chunk any) (Envelope, bool) {
	switch v := chunk.(type) {
	case Envelope:
		return v, true
	case *Envelope:
		if v != nil {
			return *v, true
		}
	case []any:
		if len(v) != 2 {
			return Envelope{}, false
		}
		switch m := v[0].(type) {
		case string:
			return Envelope{Mode: Mode(m), Data: v[1]}, true
		case Mode:
			return Envelope{Mode: m, Data: v[1]}, true
		}
	}
	return Envelope{}, false
}

// isEnvelope reports whether chunk is an envelope for a known mode. Auto
// detection uses it on the first chunk.
func isEnvelope(chunk any) bool {
	env, ok := asEnvelope(chunk)
	return ok && env.Mode.Known()
}

// messageAndMetadata splits a "messages" mode chunk. Anything that is not a
// MessageChunk or a two-element pair is taken as a bare message.
func messageAndMetadata(chunk any) (any, map[string]any) {
	switch v := chunk.(type) {
	case MessageChunk:
		return v.Message, v.Metadata
	case *MessageChunk:
		if v != nil {
			return v.Message, v.Metadata
		}
		return nil, nil
	case []any:
		if len(v) == 2 {
			meta, _ := v[1].(map[string]any)
			return v[0], meta
		}
	}
	return chunk, nil
}

type entry struct {
	key   string
	value any
}

// entries returns the key/value pairs of an Update or a plain map, or false for
// any other value.
func entries(v any) ([]entry, bool) {
	switch m := v.(type) {
	case *Update:
		if m == nil {
			return nil, false
		}
		out := make([]entry, 0, m.Len())
		for p := m.Oldest(); p != nil; p = p.Next() {
			out = append(out, entry{key: p.Key, value: p.Value})
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make([]entry, 0, len(m))
		for _, k := range keys {
			out = append(out, entry{key: k, value: m[k]})
		}
		return out, true
	}
	return nil, false
}

// lookup returns the value for key in an Update or a plain map.
func lookup(v any, key string) (any, bool) {
	switch m := v.(type) {
	case *Update:
		if m == nil {
			return nil, false
		}
		return m.Get(key)
	case map[string]any:
		val, ok := m[key]
		return val, ok
	}
	return nil, false
}
