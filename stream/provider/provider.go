// Package provider holds what the model provider adapters share: the Source
// that turns a provider's streaming response into parser chunks, and small
// conversion helpers.
//
// A provider stream becomes a dual-mode chunk sequence. Every text delta is a
// "messages" envelope carrying an AI chunk, and when the provider stream ends
// one "updates" envelope carries the accumulated assistant message. A parser
// in auto or multi-mode therefore gets content token by token, and tool call
// starts plus usage once the response is complete.
package provider

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cast"

	"github.com/dshills/langgraph-stream/stream"
	"github.com/dshills/langgraph-stream/stream/message"
)

// PullFunc returns the text delta carried by the next provider event, which
// may be empty. It returns false once the provider stream is exhausted.
type PullFunc func() (text string, ok bool, err error)

// FinalFunc returns the assistant message accumulated from every pulled event.
type FinalFunc func() (message.Message, error)

// Source adapts a provider stream to stream.Source.
type Source struct {
	node  string
	pull  PullFunc
	final FinalFunc
	done  bool
}

// NewSource returns a Source that attributes everything it produces to node.
func NewSource(node string, pull PullFunc, final FinalFunc) *Source {
	return &Source{node: node, pull: pull, final: final}
}

// Next implements stream.Source.
func (s *Source) Next(ctx context.Context) (any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.done {
			return nil, io.EOF
		}

		text, ok, err := s.pull()
		if err != nil {
			return nil, err
		}
		if !ok {
			s.done = true
			m, err := s.final()
			if err != nil {
				return nil, err
			}
			return Final(s.node, m), nil
		}
		if text != "" {
			return Delta(s.node, text), nil
		}
	}
}

// Delta wraps a text delta as a "messages" envelope.
func Delta(node, text string) stream.Envelope {
	return stream.Envelope{
		Mode: stream.ModeMessages,
		Data: stream.MessageChunk{
			Message:  message.AIChunk(text),
			Metadata: map[string]any{"langgraph_node": node},
		},
	}
}

// Final wraps a complete message as an "updates" envelope for node.
func Final(node string, m message.Message) stream.Envelope {
	u := stream.NewUpdate()
	u.Set(node, map[string]any{"messages": []any{m}})
	return stream.Envelope{Mode: stream.ModeUpdates, Data: u}
}

// Usage builds usage metadata. A zero total is computed from the other two.
func Usage(input, output, total int64) map[string]any {
	if total == 0 {
		total = input + output
	}
	if input == 0 && output == 0 && total == 0 {
		return nil
	}
	return map[string]any{
		"input_tokens":  input,
		"output_tokens": output,
		"total_tokens":  total,
	}
}

// Args decodes JSON-encoded tool arguments. Anything that is not a JSON object
// yields an empty map.
func Args(raw []byte) map[string]any {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return map[string]any{}
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return map[string]any{}
	}
	return m
}
