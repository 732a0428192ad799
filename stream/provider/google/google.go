// Package google converts Gemini responses from the generative-ai-go client
// into parser messages and chunk sources.
//
// Gemini function calls carry no id, so CallID derives one from the function
// name and the call's position in the response. ToolResult must be given the
// same id for the parser to pair the result with its start.
package google

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"

	"github.com/dshills/langgraph-stream/stream/message"
	"github.com/dshills/langgraph-stream/stream/provider"
)

// ResponseIterator is the part of *genai.GenerateContentResponseIterator that
// a Source reads. Next returns iterator.Done after the last response.
type ResponseIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

// CallID returns the id assigned to the index-th function call of a response.
func CallID(name string, index int) string {
	return fmt.Sprintf("call_%s_%d", name, index)
}

// FromResponse converts the first candidate of resp.
func FromResponse(resp *genai.GenerateContentResponse) message.Message {
	var acc accumulator
	acc.add(resp)
	return acc.message()
}

// FromPart returns the AI chunk carried by a text part.
func FromPart(p genai.Part) (message.Message, bool) {
	t, ok := p.(genai.Text)
	if !ok || t == "" {
		return message.Message{}, false
	}
	return message.AIChunk(string(t)), true
}

// ToolResult builds the tool message for a function response. A response
// holding an "error" key is reported as a failed call.
func ToolResult(callID string, fr genai.FunctionResponse) message.Message {
	var content any = fr.Response
	if fr.Response == nil {
		content = map[string]any{}
	}
	return message.Tool(fr.Name, callID, content)
}

// NewSource returns a Source reading it. Text parts are streamed as they
// arrive. Function calls and usage are reported once the iterator is done.
func NewSource(it ResponseIterator, node string) *provider.Source {
	var (
		acc     accumulator
		pending []string
	)
	pull := func() (string, bool, error) {
		if len(pending) > 0 {
			text := pending[0]
			pending = pending[1:]
			return text, true, nil
		}
		resp, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		pending = acc.add(resp)
		return "", true, nil
	}
	final := func() (message.Message, error) {
		return acc.message(), nil
	}
	return provider.NewSource(node, pull, final)
}

// accumulator merges streamed responses for the first candidate. Usage
// metadata is cumulative in a Gemini stream, so the last one wins.
type accumulator struct {
	text   strings.Builder
	calls  []message.ToolCall
	usage  *genai.UsageMetadata
	finish genai.FinishReason
}

// add merges resp and returns its text parts.
func (a *accumulator) add(resp *genai.GenerateContentResponse) []string {
	if resp == nil {
		return nil
	}
	if resp.UsageMetadata != nil {
		a.usage = resp.UsageMetadata
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != genai.FinishReasonUnspecified {
		a.finish = cand.FinishReason
	}
	if cand.Content == nil {
		return nil
	}

	var texts []string
	for _, part := range cand.Content.Parts {
		if chunk, ok := FromPart(part); ok {
			text := message.Content(chunk)
			a.text.WriteString(text)
			texts = append(texts, text)
			continue
		}
		switch fc := part.(type) {
		case genai.FunctionCall:
			a.call(fc)
		case *genai.FunctionCall:
			if fc != nil {
				a.call(*fc)
			}
		}
	}
	return texts
}

func (a *accumulator) call(fc genai.FunctionCall) {
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	a.calls = append(a.calls, message.ToolCall{
		ID:   CallID(fc.Name, len(a.calls)),
		Name: fc.Name,
		Args: args,
	})
}

func (a *accumulator) message() message.Message {
	out := message.AI(a.text.String(), a.calls...)
	if a.usage != nil {
		out.UsageMetadata = provider.Usage(
			int64(a.usage.PromptTokenCount),
			int64(a.usage.CandidatesTokenCount),
			int64(a.usage.TotalTokenCount),
		)
	}
	if a.finish != genai.FinishReasonUnspecified {
		out.ResponseMetadata = map[string]any{"finish_reason": a.finish.String()}
	}
	return out
}
