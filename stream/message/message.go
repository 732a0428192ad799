// Package message adapts the message objects found in a graph runtime's stream
// into a small set of interfaces, and provides pure decoders that pull text,
// tool calls, usage and error signals out of them.
//
// A message's Kind is fixed when it is ingested (by FromMap, the wire decoder or
// a provider adapter) and is never re-derived from a type name afterwards. The
// decoders only depend on the narrow Has* interfaces, so any host type can take
// part by implementing the ones it supports.
package message

import "github.com/spf13/cast"

// Kind routes a message to the right processing branch.
type Kind int

const (
	KindUnknown Kind = iota
	KindAI
	KindAIChunk
	KindTool
	KindHuman
	KindSystem
)

// String returns the runtime class name for k.
func (k Kind) String() string {
	switch k {
	case KindAI:
		return "AIMessage"
	case KindAIChunk:
		return "AIMessageChunk"
	case KindTool:
		return "ToolMessage"
	case KindHuman:
		return "HumanMessage"
	case KindSystem:
		return "SystemMessage"
	}
	return "unknown"
}

// IsAI reports whether k is a complete or partial assistant message.
func (k Kind) IsAI() bool {
	return k == KindAI || k == KindAIChunk
}

// ParseKind maps a runtime type tag to a Kind. It accepts class names
// ("AIMessage", "ToolMessageChunk"), serialized short tags ("ai", "tool") and
// chat roles ("assistant", "user").
func ParseKind(tag string) Kind {
	switch tag {
	case "AIMessage", "ai", "assistant":
		return KindAI
	case "AIMessageChunk", "ai_chunk":
		return KindAIChunk
	case "ToolMessage", "ToolMessageChunk", "tool":
		return KindTool
	case "HumanMessage", "HumanMessageChunk", "human", "user":
		return KindHuman
	case "SystemMessage", "SystemMessageChunk", "system":
		return KindSystem
	}
	return KindUnknown
}

// Typed is implemented by messages that know their own Kind.
type Typed interface {
	MessageKind() Kind
}

// HasContent is implemented by messages that carry content. The content may be
// a string, a list of content blocks, or any other value.
type HasContent interface {
	MessageContent() any
}

// HasToolCalls is implemented by assistant messages that request tool calls.
type HasToolCalls interface {
	MessageToolCalls() []ToolCall
}

// HasStatus is implemented by tool results that report an explicit status.
type HasStatus interface {
	MessageStatus() string
}

// HasUsage is implemented by messages that carry token usage metadata.
type HasUsage interface {
	MessageUsage() map[string]any
}

// HasToolResult is implemented by tool result messages.
type HasToolResult interface {
	MessageName() string
	MessageToolCallID() string
	MessageArtifact() any
}

// ToolCall is a normalized tool invocation request.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message is the concrete message type used throughout the module. It
// implements every adapter interface in this package.
type Message struct {
	Kind             Kind
	ID               string
	Content          any
	ToolCalls        []ToolCall
	Name             string
	ToolCallID       string
	Status           string
	Artifact         any
	UsageMetadata    map[string]any
	ResponseMetadata map[string]any
}

func (m Message) MessageKind() Kind            { return m.Kind }
func (m Message) MessageContent() any          { return m.Content }
func (m Message) MessageToolCalls() []ToolCall { return m.ToolCalls }
func (m Message) MessageStatus() string        { return m.Status }
func (m Message) MessageUsage() map[string]any { return m.UsageMetadata }
func (m Message) MessageName() string          { return m.Name }
func (m Message) MessageToolCallID() string    { return m.ToolCallID }
func (m Message) MessageArtifact() any         { return m.Artifact }

// AI returns an assistant message with the given content and tool calls.
func AI(content any, calls ...ToolCall) Message {
	return Message{Kind: KindAI, Content: content, ToolCalls: calls}
}

// AIChunk returns a partial assistant message as streamed token by token.
func AIChunk(content any) Message {
	return Message{Kind: KindAIChunk, Content: content}
}

// Human returns a user message.
func Human(content any) Message {
	return Message{Kind: KindHuman, Content: content}
}

// Tool returns a tool result message for the call identified by callID.
func Tool(name, callID string, content any) Message {
	return Message{Kind: KindTool, Name: name, ToolCallID: callID, Content: content}
}

// FromMap builds a Message from a dictionary-shaped message such as
// {"type": "ai", "content": "...", "tool_calls": [...]}. The Kind is read from
// "type", falling back to "role".
func FromMap(m map[string]any) Message {
	tag := cast.ToString(m["type"])
	if tag == "" {
		tag = cast.ToString(m["role"])
	}
	msg := Message{
		Kind:       ParseKind(tag),
		ID:         cast.ToString(m["id"]),
		Content:    m["content"],
		Name:       cast.ToString(m["name"]),
		ToolCallID: cast.ToString(m["tool_call_id"]),
		Status:     cast.ToString(m["status"]),
		Artifact:   m["artifact"],
		ToolCalls:  NormalizeToolCalls(m["tool_calls"]),
	}
	if u, ok := m["usage_metadata"].(map[string]any); ok {
		msg.UsageMetadata = u
	}
	if rm, ok := m["response_metadata"].(map[string]any); ok {
		msg.ResponseMetadata = rm
	}
	return msg
}

// Adapt returns m unchanged unless it is a plain map, in which case it is
// converted with FromMap.
func Adapt(m any) any {
	if mm, ok := m.(map[string]any); ok {
		return FromMap(mm)
	}
	return m
}
