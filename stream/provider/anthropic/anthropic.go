// Package anthropic converts Anthropic Messages API responses into parser
// messages and chunk sources.
//
// Example usage:
//
//	client := anthropic.NewClient(option.WithAPIKey(apiKey))
//	events := client.Messages.NewStreaming(ctx, params)
//	defer events.Close()
//
//	for ev := range parser.ParseSource(ctx, adapter.NewSource(events, "agent")) {
//	    ...
//	}
package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/dshills/langgraph-stream/stream/message"
	"github.com/dshills/langgraph-stream/stream/provider"
)

// EventStream is the part of *ssestream.Stream[anthropic.MessageStreamEventUnion]
// that a Source reads.
type EventStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
}

// FromMessage converts a complete response. Text blocks are concatenated and
// tool_use blocks become tool calls.
func FromMessage(m *anthropic.Message) message.Message {
	var (
		text  strings.Builder
		calls []message.ToolCall
	)
	for _, block := range m.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			calls = append(calls, message.ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: provider.Args(block.Input),
			})
		}
	}

	out := message.AI(text.String(), calls...)
	out.ID = m.ID
	out.UsageMetadata = provider.Usage(m.Usage.InputTokens, m.Usage.OutputTokens, 0)
	out.ResponseMetadata = map[string]any{
		"model":       string(m.Model),
		"stop_reason": string(m.StopReason),
	}
	return out
}

// FromEvent returns the AI chunk carried by a text delta event.
func FromEvent(ev anthropic.MessageStreamEventUnion) (message.Message, bool) {
	if ev.Type != "content_block_delta" || ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
		return message.Message{}, false
	}
	return message.AIChunk(ev.Delta.Text), true
}

// ToolResult builds the tool message answering the tool_use block toolUseID.
// isError mirrors the is_error flag of a tool_result block.
func ToolResult(toolUseID, name string, content any, isError bool) message.Message {
	m := message.Tool(name, toolUseID, content)
	if isError {
		m.Status = "error"
	}
	return m
}

// NewSource returns a Source reading events. Events are accumulated with
// anthropic.Message.Accumulate, so the final chunk carries the whole response
// including tool calls and usage.
func NewSource(events EventStream, node string) *provider.Source {
	var acc anthropic.Message
	pull := func() (string, bool, error) {
		if !events.Next() {
			return "", false, events.Err()
		}
		ev := events.Current()
		if err := acc.Accumulate(ev); err != nil {
			return "", false, err
		}
		chunk, ok := FromEvent(ev)
		if !ok {
			return "", true, nil
		}
		return message.Content(chunk), true, nil
	}
	final := func() (message.Message, error) {
		return FromMessage(&acc), nil
	}
	return provider.NewSource(node, pull, final)
}
