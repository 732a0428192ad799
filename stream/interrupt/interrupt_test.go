package interrupt

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/langgraph-stream/stream/event"
)

func approvalValue(tool, id string) map[string]any {
	return map[string]any{
		"action_requests": []any{
			map[string]any{"name": tool, "tool_call_id": id, "args": map[string]any{"path": "/tmp/x"}},
		},
		"review_configs": []any{
			map[string]any{"allowed_decisions": []any{"approve", "reject", "edit"}},
		},
	}
}

type requestObject struct {
	Actions []any `json:"action_requests"`
	Configs []any `json:"review_configs"`
}

type methodObject struct{}

func (methodObject) ActionRequests() []any {
	return []any{map[string]any{"tool": "deploy"}}
}

func (methodObject) ReviewConfigs() []any { return nil }

func TestReconcile_Shapes(t *testing.T) {
	tests := []struct {
		name        string
		raw         any
		wantActions int
		wantConfigs int
	}{
		{"single wrapped", []any{Interrupt{Value: approvalValue("delete_file", "call_1")}}, 1, 1},
		{"single wrapped pointer slice", []*Interrupt{{Value: approvalValue("delete_file", "call_1")}}, 1, 1},
		{"multiple wrapped aggregate", []any{
			Interrupt{Value: approvalValue("delete_file", "call_1")},
			Interrupt{Value: approvalValue("send_email", "call_2")},
		}, 2, 2},
		{"pair of lists", []any{
			[]any{map[string]any{"tool": "a"}, map[string]any{"tool": "b"}},
			[]any{map[string]any{"allowed_decisions": []any{"approve"}}},
		}, 2, 1},
		{"plain mapping", approvalValue("delete_file", "call_1"), 1, 1},
		{"struct attributes", requestObject{
			Actions: []any{map[string]any{"tool": "x"}},
			Configs: []any{map[string]any{}},
		}, 1, 1},
		{"requests interface", methodObject{}, 1, 0},
		{"single mapping in a list", []any{approvalValue("a", "1")}, 1, 1},
		{"list of mappings aggregate", []any{approvalValue("a", "1"), approvalValue("b", "2"), approvalValue("c", "3")}, 3, 3},
		{"unknown scalar", "interrupted", 0, 0},
		{"nil", nil, 0, 0},
		{"empty list", []any{}, 0, 0},
		{"wrapper with scalar value", []any{Interrupt{Value: "please confirm"}}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, configs := Reconcile(tt.raw)
			if len(actions) != tt.wantActions {
				t.Errorf("expected %d actions, got %d: %v", tt.wantActions, len(actions), actions)
			}
			if len(configs) != tt.wantConfigs {
				t.Errorf("expected %d configs, got %d: %v", tt.wantConfigs, len(configs), configs)
			}
		})
	}
}

func TestReconcile_AggregatesInOrder(t *testing.T) {
	raw := []any{
		Interrupt{Value: approvalValue("delete_file", "call_1")},
		Interrupt{Value: approvalValue("send_email", "call_2")},
	}
	actions, _ := Reconcile(raw)
	want := []event.ActionRequest{
		{Tool: "delete_file", ToolCallID: "call_1", Args: map[string]any{"path": "/tmp/x"}},
		{Tool: "send_email", ToolCallID: "call_2", Args: map[string]any{"path": "/tmp/x"}},
	}
	if diff := cmp.Diff(want, actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeAction(t *testing.T) {
	t.Run("tool wins over name", func(t *testing.T) {
		got := SerializeAction(map[string]any{"tool": "t", "name": "n"}, 0)
		if got.Tool != "t" {
			t.Errorf("expected tool t, got %q", got.Tool)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		got := SerializeAction(map[string]any{"name": "search"}, 3)
		want := event.ActionRequest{Tool: "search", ToolCallID: "call_3", Args: map[string]any{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("action mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("description and json args", func(t *testing.T) {
		got := SerializeAction(map[string]any{
			"tool":        "write",
			"args":        `{"file": "a.txt"}`,
			"description": "Write a file",
		}, 0)
		if got.Description != "Write a file" || got.Args["file"] != "a.txt" {
			t.Errorf("unexpected action %+v", got)
		}
	})

	t.Run("typed action keeps id", func(t *testing.T) {
		got := SerializeAction(event.ActionRequest{Tool: "x", ToolCallID: "abc"}, 9)
		if got.ToolCallID != "abc" || got.Args == nil {
			t.Errorf("unexpected action %+v", got)
		}
	})
}

func TestSerializeReviewConfig(t *testing.T) {
	got := SerializeReviewConfig(map[string]any{})
	if got.AllowedDecisions == nil || len(got.AllowedDecisions) != 0 {
		t.Errorf("expected empty non-nil decisions, got %#v", got.AllowedDecisions)
	}

	got = SerializeReviewConfig(map[string]any{"allowed_decisions": []any{"approve", "edit"}})
	if diff := cmp.Diff([]string{"approve", "edit"}, got.AllowedDecisions); diff != "" {
		t.Errorf("decisions mismatch (-want +got):\n%s", diff)
	}

	got = SerializeReviewConfig(&event.ReviewConfig{})
	if got.AllowedDecisions == nil {
		t.Error("expected non-nil decisions for typed config")
	}
}
