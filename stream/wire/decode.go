package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dshills/langgraph-stream/stream"
	"github.com/dshills/langgraph-stream/stream/interrupt"
	"github.com/dshills/langgraph-stream/stream/message"
)

type value struct {
	data []byte
	typ  jsonparser.ValueType
}

// DecodeChunk decodes one JSON chunk.
//
// A two-element array starting with a string is an envelope; one starting
// with a message object is a (message, metadata) pair. An object is a message
// when it carries a recognized type tag and an update otherwise. Anything else
// decodes generically, with message objects recognized at any depth.
func DecodeChunk(data []byte) (any, error) {
	data, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case jsonparser.Array:
		items, err := elements(data)
		if err != nil {
			return nil, err
		}
		if len(items) == 2 && items[0].typ == jsonparser.String {
			return decodeEnvelope(items[0].data, items[1])
		}
		if len(items) == 2 && IsMessage(items[0].data, items[0].typ) {
			return decodePair(items[0], items[1])
		}
		return decodeArray(items)
	case jsonparser.Object:
		if IsMessage(data, typ) {
			return DecodeMessage(data)
		}
		return DecodeUpdate(data)
	}
	return decodeAny(data, typ)
}

func decodeEnvelope(tag []byte, data value) (any, error) {
	mode, err := jsonparser.ParseString(tag)
	if err != nil {
		return nil, fmt.Errorf("envelope mode: %w", err)
	}

	var payload any
	switch {
	case stream.Mode(mode) == stream.ModeUpdates && data.typ == jsonparser.Object:
		payload, err = DecodeUpdate(data.data)
	case stream.Mode(mode) == stream.ModeMessages && data.typ == jsonparser.Array:
		var items []value
		if items, err = elements(data.data); err == nil {
			if len(items) == 2 {
				payload, err = decodePair(items[0], items[1])
			} else {
				payload, err = decodeArray(items)
			}
		}
	default:
		payload, err = decodeAny(data.data, data.typ)
	}
	if err != nil {
		return nil, fmt.Errorf("%s envelope: %w", mode, err)
	}
	return stream.Envelope{Mode: stream.Mode(mode), Data: payload}, nil
}

func decodePair(msg, meta value) (any, error) {
	m, err := decodeAny(msg.data, msg.typ)
	if err != nil {
		return nil, err
	}
	md, err := decodeAny(meta.data, meta.typ)
	if err != nil {
		return nil, err
	}
	metadata, _ := md.(map[string]any)
	return stream.MessageChunk{Message: m, Metadata: metadata}, nil
}

// DecodeUpdate decodes a {node: state} object, keeping the order of nodes and
// of each node's state keys. The value under the interrupt key becomes a list
// of *interrupt.Interrupt.
func DecodeUpdate(data []byte) (*stream.Update, error) {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	u := stream.NewUpdate()
	for p := raw.Oldest(); p != nil; p = p.Next() {
		var (
			v   any
			err error
		)
		if p.Key == interrupt.Key {
			v, err = decodeInterrupts(p.Value)
		} else {
			v, err = decodeState(p.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", p.Key, err)
		}
		u.Set(p.Key, v)
	}
	return u, nil
}

func decodeState(data []byte) (any, error) {
	data, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	if typ != jsonparser.Object || IsMessage(data, typ) {
		return decodeAny(data, typ)
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	state := stream.NewUpdate()
	for p := raw.Oldest(); p != nil; p = p.Next() {
		v, err := decodeRaw(p.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", p.Key, err)
		}
		state.Set(p.Key, v)
	}
	return state, nil
}

func decodeInterrupts(data []byte) (any, error) {
	data, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	if typ != jsonparser.Array {
		return decodeAny(data, typ)
	}

	items, err := elements(data)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if item.typ != jsonparser.Object {
			v, err := decodeAny(item.data, item.typ)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}
		raw, vt, _, err := jsonparser.Get(item.data, "value")
		if err != nil {
			v, err := decodeAny(item.data, item.typ)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}
		v, err := decodeAny(raw, vt)
		if err != nil {
			return nil, err
		}
		id, _ := jsonparser.GetString(item.data, "id")
		out = append(out, &interrupt.Interrupt{Value: v, ID: id})
	}
	return out, nil
}

// IsMessage reports whether data is a serialized message object: a
// constructor record for a message class, or an object whose "type" tag (or
// "role", when it also has "content") names a message kind.
func IsMessage(data []byte, typ jsonparser.ValueType) bool {
	if typ != jsonparser.Object {
		return false
	}
	if class, ok := constructorClass(data); ok {
		return message.ParseKind(class) != message.KindUnknown
	}
	if tag, err := jsonparser.GetString(data, "type"); err == nil {
		return message.ParseKind(tag) != message.KindUnknown
	}
	if _, _, _, err := jsonparser.Get(data, "content"); err != nil {
		return false
	}
	role, err := jsonparser.GetString(data, "role")
	return err == nil && message.ParseKind(role) != message.KindUnknown
}

// DecodeMessage decodes a serialized message. Three forms are accepted: flat
// ({"type": "ai", "content": ...}), data-wrapped ({"type": "ai", "data":
// {...}}) and constructor records ({"lc": 1, "type": "constructor", "id":
// [..., "AIMessage"], "kwargs": {...}}).
func DecodeMessage(data []byte) (message.Message, error) {
	tag, _ := jsonparser.GetString(data, "type")
	fields := data

	if class, ok := constructorClass(data); ok {
		tag = class
		kwargs, typ, _, err := jsonparser.Get(data, "kwargs")
		if err != nil || typ != jsonparser.Object {
			return message.Message{}, fmt.Errorf("constructor %s: missing kwargs", class)
		}
		fields = kwargs
	} else if inner, typ, _, err := jsonparser.Get(data, "data"); err == nil && typ == jsonparser.Object {
		fields = inner
	}

	m, err := decodeObject(fields)
	if err != nil {
		return message.Message{}, err
	}
	if tag != "" {
		m["type"] = tag
	}
	return message.FromMap(m), nil
}

// constructorClass returns the class name of a {"lc": 1, "type":
// "constructor", "id": [...]} record.
func constructorClass(data []byte) (string, bool) {
	if _, _, _, err := jsonparser.Get(data, "lc"); err != nil {
		return "", false
	}
	if tag, _ := jsonparser.GetString(data, "type"); tag != "constructor" {
		return "", false
	}
	var class string
	_, err := jsonparser.ArrayEach(data, func(v []byte, typ jsonparser.ValueType, _ int, _ error) {
		if typ == jsonparser.String {
			class, _ = jsonparser.ParseString(v)
		}
	}, "id")
	if err != nil || class == "" {
		return "", false
	}
	return class, true
}

func elements(data []byte) ([]value, error) {
	var (
		items []value
		ferr  error
	)
	_, err := jsonparser.ArrayEach(data, func(v []byte, typ jsonparser.ValueType, _ int, err error) {
		if err != nil && ferr == nil {
			ferr = err
		}
		items = append(items, value{data: v, typ: typ})
	})
	if err != nil {
		return nil, err
	}
	return items, ferr
}

func decodeArray(items []value) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := decodeAny(item.data, item.typ)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeRaw(data []byte) (any, error) {
	data, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	return decodeAny(data, typ)
}

// decodeAny converts a JSON value as reported by jsonparser (strings without
// their quotes) into plain Go values. Numbers become float64, as with
// encoding/json, and message objects become message.Message.
func decodeAny(data []byte, typ jsonparser.ValueType) (any, error) {
	switch typ {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		return b, err
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(data)
		return f, err
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		return s, err
	case jsonparser.Array:
		items, err := elements(data)
		if err != nil {
			return nil, err
		}
		return decodeArray(items)
	case jsonparser.Object:
		if IsMessage(data, typ) {
			return DecodeMessage(data)
		}
		return decodeObject(data)
	}
	return nil, fmt.Errorf("unsupported JSON value %s", strings.TrimSpace(string(data)))
}

func decodeObject(data []byte) (map[string]any, error) {
	out := map[string]any{}
	err := jsonparser.ObjectEach(data, func(key, v []byte, vt jsonparser.ValueType, _ int) error {
		k, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		val, err := decodeAny(v, vt)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		out[k] = val
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
