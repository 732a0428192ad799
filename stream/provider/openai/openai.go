// Package openai converts OpenAI chat completions into parser messages and
// chunk sources.
package openai

import (
	"errors"

	"github.com/openai/openai-go"

	"github.com/dshills/langgraph-stream/stream/message"
	"github.com/dshills/langgraph-stream/stream/provider"
)

// ErrMixedCompletions is returned by a Source when a chunk belongs to a
// different completion than the ones before it.
var ErrMixedCompletions = errors.New("chunk belongs to a different completion")

// ChunkStream is the part of *ssestream.Stream[openai.ChatCompletionChunk]
// that a Source reads.
type ChunkStream interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
}

// FromCompletion converts the first choice of a completion. A refusal with no
// content becomes the message content.
func FromCompletion(c *openai.ChatCompletion) message.Message {
	if len(c.Choices) == 0 {
		out := message.AI("")
		out.ID = c.ID
		return out
	}
	choice := c.Choices[0]

	calls := make([]message.ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, message.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: provider.Args([]byte(tc.Function.Arguments)),
		})
	}

	content := choice.Message.Content
	if content == "" {
		content = choice.Message.Refusal
	}
	out := message.AI(content, calls...)
	out.ID = c.ID
	out.UsageMetadata = provider.Usage(c.Usage.PromptTokens, c.Usage.CompletionTokens, c.Usage.TotalTokens)
	out.ResponseMetadata = map[string]any{
		"model":         c.Model,
		"finish_reason": string(choice.FinishReason),
	}
	return out
}

// FromChunk returns the AI chunk carried by the first choice of chunk.
func FromChunk(chunk openai.ChatCompletionChunk) (message.Message, bool) {
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return message.Message{}, false
	}
	m := message.AIChunk(chunk.Choices[0].Delta.Content)
	m.ID = chunk.ID
	return m, true
}

// ToolResult builds the tool message answering callID.
func ToolResult(callID, name string, content any) message.Message {
	return message.Tool(name, callID, content)
}

// NewSource returns a Source reading chunks. Chunks are accumulated with
// openai.ChatCompletionAccumulator; request usage with
// stream_options.include_usage to get a Usage event.
func NewSource(chunks ChunkStream, node string) *provider.Source {
	var acc openai.ChatCompletionAccumulator
	pull := func() (string, bool, error) {
		if !chunks.Next() {
			return "", false, chunks.Err()
		}
		chunk := chunks.Current()
		if !acc.AddChunk(chunk) {
			return "", false, ErrMixedCompletions
		}
		m, ok := FromChunk(chunk)
		if !ok {
			return "", true, nil
		}
		return message.Content(m), true, nil
	}
	final := func() (message.Message, error) {
		return FromCompletion(&acc.ChatCompletion), nil
	}
	return provider.NewSource(node, pull, final)
}
