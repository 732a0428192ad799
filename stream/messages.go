package stream

import (
	"github.com/spf13/cast"

	"github.com/dshills/langgraph-stream/stream/event"
	"github.com/dshills/langgraph-stream/stream/message"
)

// messagesHandler turns "messages" chunks into Content events. Only assistant
// chunks count; tool call fragments on them are left to the updates handler.
type messagesHandler struct {
	r *run
}

func (h *messagesHandler) process(chunk any) bool {
	raw, meta := messageAndMetadata(chunk)
	m := message.Adapt(raw)
	if message.KindOf(m) != message.KindAIChunk {
		h.r.p.metrics.skip("not_ai_chunk")
		return true
	}

	content := message.Content(m)
	if content == "" {
		return true
	}
	return h.r.send(event.Content{
		Content:   content,
		Role:      event.RoleAssistant,
		Node:      cast.ToString(meta["langgraph_node"]),
		Timestamp: h.r.now(),
	})
}
