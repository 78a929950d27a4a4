package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/agentcore/runtime/pkg/models"
	"github.com/agentcore/runtime/pkg/toolapi"
)

func TestConvertMessages_TextAndToolUse(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleUser, Content: []models.ContentBlock{models.NewText("what's 2+2?")}},
		{Role: models.RoleAssistant, Content: []models.ContentBlock{
			models.NewText("let me check"),
			models.NewToolUse("t1", "calc", json.RawMessage(`{"expr":"2+2"}`)),
		}},
		{Role: models.RoleTool, Content: []models.ContentBlock{
			models.NewToolResult("t1", models.TextResult("4"), models.ToolResultSuccess),
		}},
	}

	out, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("convertMessages() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	if out[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("out[1].Role = %v, want assistant", out[1].Role)
	}
	if out[2].Role != anthropic.MessageParamRoleUser {
		t.Errorf("out[2].Role (tool-role message) = %v, want user", out[2].Role)
	}
}

func TestConvertMessages_InvalidToolInputErrors(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleAssistant, Content: []models.ContentBlock{
			models.NewToolUse("t1", "calc", json.RawMessage(`not json`)),
		}},
	}
	if _, err := convertMessages(messages); err == nil {
		t.Errorf("convertMessages() error = nil, want error for invalid tool input")
	}
}

func TestConvertTools_BuildsSchemaAndDescription(t *testing.T) {
	tools := []toolapi.ToolDefinition{
		{Name: "calc", Description: "evaluates arithmetic", Schema: []byte(`{"type":"object","properties":{"expr":{"type":"string"}}}`)},
	}
	out, err := convertTools(tools)
	if err != nil {
		t.Fatalf("convertTools() error = %v", err)
	}
	if len(out) != 1 || out[0].OfTool == nil {
		t.Fatalf("convertTools() = %+v, want one tool", out)
	}
	if out[0].OfTool.Name != "calc" {
		t.Errorf("Name = %q, want calc", out[0].OfTool.Name)
	}
}

func TestConvertTools_InvalidSchemaErrors(t *testing.T) {
	tools := []toolapi.ToolDefinition{{Name: "bad", Schema: []byte(`not json`)}}
	if _, err := convertTools(tools); err == nil {
		t.Errorf("convertTools() error = nil, want error for invalid schema")
	}
}

func TestConvertStopReason(t *testing.T) {
	tests := map[anthropic.StopReason]models.StopReason{
		anthropic.StopReasonEndTurn:      models.StopEndTurn,
		anthropic.StopReasonToolUse:      models.StopToolUse,
		anthropic.StopReasonMaxTokens:    models.StopMaxTokens,
		anthropic.StopReasonStopSequence: models.StopSequence,
		anthropic.StopReasonPauseTurn:    models.StopPauseTurn,
		anthropic.StopReason("weird"):    models.StopUnknown,
	}
	for in, want := range tests {
		if got := convertStopReason(in); got != want {
			t.Errorf("convertStopReason(%v) = %v, want %v", in, got, want)
		}
	}
}
