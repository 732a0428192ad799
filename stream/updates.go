package stream

import (
	"strings"
	"time"

	"github.com/dshills/langgraph-stream/stream/event"
	"github.com/dshills/langgraph-stream/stream/extract"
	"github.com/dshills/langgraph-stream/stream/interrupt"
	"github.com/dshills/langgraph-stream/stream/message"
)

// updatesHandler turns "updates" chunks into events and owns the tool call
// lifecycle. With suppressContent set it yields no Content events, which is
// how multi-mode leaves content to the messages channel.
type updatesHandler struct {
	r               *run
	suppressContent bool
}

// process handles one {node: state} chunk. It returns false once the consumer
// has stopped.
func (h *updatesHandler) process(chunk any) bool {
	if raw, ok := lookup(chunk, interrupt.Key); ok {
		actions, configs := interrupt.Reconcile(raw)
		return h.r.send(event.Interrupt{
			ActionRequests: actions,
			ReviewConfigs:  configs,
			RawValue:       raw,
			Timestamp:      h.r.now(),
		})
	}

	nodes, ok := entries(chunk)
	if !ok {
		h.r.skip("not_mapping", chunk)
		return true
	}
	for _, n := range nodes {
		if !h.node(n.key, n.value) {
			return false
		}
	}
	return true
}

func (h *updatesHandler) node(name string, state any) bool {
	fields, ok := entries(state)
	if !ok {
		return true
	}

	if msgs, ok := lookup(state, "messages"); ok {
		for _, m := range message.List(msgs) {
			if !h.message(name, message.Adapt(m)) {
				return false
			}
		}
	}

	if !h.r.p.stateUpdates {
		return true
	}
	for _, f := range fields {
		if f.key == "messages" {
			continue
		}
		if !h.r.send(event.StateUpdate{Node: name, Key: f.key, Value: f.value, Timestamp: h.r.now()}) {
			return false
		}
	}
	return true
}

func (h *updatesHandler) message(node string, m any) bool {
	switch kind := message.KindOf(m); {
	case kind.IsAI():
		return h.ai(node, m)
	case kind == message.KindTool:
		return h.tool(m)
	case kind == message.KindHuman:
		return h.human(node, m)
	default:
		h.r.p.logger.Debug("ignoring message", "run_id", h.r.id, "step", h.r.step, "node", node, "kind", kind.String())
		return true
	}
}

func (h *updatesHandler) ai(node string, m any) bool {
	calls := message.ToolCalls(m)

	if h.r.p.lifecycle {
		for _, tc := range calls {
			if h.r.p.skips(tc.Name) {
				continue
			}
			start := event.ToolCallStart{ID: tc.ID, Name: tc.Name, Args: tc.Args, Node: node, Timestamp: h.r.now()}
			h.r.p.metrics.pending(h.r.p.pending.put(start))
			if !h.r.send(start) {
				return false
			}
		}
	}

	if !h.suppressContent {
		content := strings.TrimSpace(message.Content(m))
		if content != "" && len(calls) > 0 {
			content = message.CleanToolEcho(content)
		}
		if content != "" {
			if !h.r.send(event.Content{Content: content, Role: event.RoleAssistant, Node: node, Timestamp: h.r.now()}) {
				return false
			}
		}
	}

	if u, ok := message.UsageOf(m); ok {
		in, out, total := message.UsageCounts(u)
		if total > 0 {
			return h.r.send(event.Usage{
				InputTokens:  in,
				OutputTokens: out,
				TotalTokens:  total,
				Node:         node,
				Timestamp:    h.r.now(),
			})
		}
	}
	return true
}

func (h *updatesHandler) human(node string, m any) bool {
	if h.suppressContent {
		return true
	}
	content := strings.TrimSpace(message.Content(m))
	if content == "" {
		return true
	}
	return h.r.send(event.Content{Content: content, Role: event.RoleHuman, Node: node, Timestamp: h.r.now()})
}

func (h *updatesHandler) tool(m any) bool {
	name := message.Name(m)
	if h.r.p.skips(name) {
		return true
	}

	failed, errMsg := message.DetectError(m)
	content := message.RawContent(m)

	if ex, ok := h.r.registry.Lookup(name); ok && name != "" {
		payload := content
		if a := message.Artifact(m); a != nil {
			payload = a
		}
		data, matched, err := extract.Run(ex, payload)
		switch {
		case err != nil:
			h.r.p.logger.Debug("extractor failed", "run_id", h.r.id, "step", h.r.step, "tool", name, "error", err)
			h.r.p.metrics.extractionFailure(name)
		case matched:
			if !h.r.send(event.ToolExtracted{ToolName: name, ExtractedType: ex.ExtractedType(), Data: data, Timestamp: h.r.now()}) {
				return false
			}
		}
	}

	id := message.ToolCallID(m)
	if !h.r.p.lifecycle || id == "" {
		return true
	}

	start, ok, remaining := h.r.p.pending.pop(id)
	h.r.p.metrics.pending(remaining)
	if !ok {
		h.r.p.logger.Debug("dropping tool result without a pending start", "run_id", h.r.id, "step", h.r.step, "tool", name, "tool_call_id", id)
		h.r.p.metrics.droppedEnd()
		return true
	}

	if name == "" {
		name = start.Name
	}
	if name == "" {
		name = "unknown"
	}
	status := event.StatusSuccess
	if failed {
		status = event.StatusError
	} else {
		errMsg = ""
	}

	now := h.r.now()
	ms := float64(now.Sub(start.Timestamp)) / float64(time.Millisecond)
	h.r.p.metrics.toolEnded(name, string(status), ms)

	return h.r.send(event.ToolCallEnd{
		ID:           id,
		Name:         name,
		Result:       content,
		Status:       status,
		ErrorMessage: errMsg,
		DurationMS:   &ms,
		Timestamp:    now,
	})
}
