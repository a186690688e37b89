package openai

import (
	"testing"

	"github.com/invopop/jsonschema"

	"github.com/overtone-ai/overtone-core/core/llms"
)

func TestToWireMessages_KeepsHistoryAfterToolCalls(t *testing.T) {
	entries := []llms.Entry{
		{Role: llms.RoleUser, Content: "first prompt"},
		{
			Role: llms.RoleAssistant,
			ToolCalls: []llms.ToolCall{
				{
					ID:        "call_1",
					Name:      "lookup_weather",
					Arguments: `{"city":"Prague"}`,
					Response:  `{"temp":21}`,
				},
			},
		},
		{Role: llms.RoleAssistant, Content: "It is 21C in Prague."},
		{Role: llms.RoleUser, Content: "second prompt"},
		{Role: llms.RoleAssistant, Content: "What else can I help with?"},
	}

	messages := toWireMessages("be helpful", entries)

	if len(messages) != 7 {
		t.Fatalf("expected 7 messages, got %d", len(messages))
	}

	if messages[0].Role != messageRoleSystem || messages[0].Content != "be helpful" {
		t.Fatalf("unexpected system message: %+v", messages[0])
	}

	if messages[1].Role != messageRoleUser || messages[1].Content != "first prompt" {
		t.Fatalf("unexpected first user message: %+v", messages[1])
	}

	if messages[2].Role != messageRoleAssistant || len(messages[2].ToolCalls) != 1 ||
		messages[2].ToolCalls[0].ID != "call_1" ||
		messages[2].ToolCalls[0].Function.Name != "lookup_weather" {
		t.Fatalf("unexpected assistant tool-call message: %+v", messages[2])
	}

	if messages[3].Role != messageRoleTool || messages[3].ToolCallID != "call_1" ||
		messages[3].Content != `{"temp":21}` {
		t.Fatalf("unexpected tool response message: %+v", messages[3])
	}

	if messages[4].Role != messageRoleAssistant || messages[4].Content != "It is 21C in Prague." {
		t.Fatalf("unexpected assistant message after tool call: %+v", messages[4])
	}

	if messages[5].Role != messageRoleUser || messages[5].Content != "second prompt" {
		t.Fatalf("history truncated before second prompt: %+v", messages[5])
	}

	if messages[6].Role != messageRoleAssistant || messages[6].Content != "What else can I help with?" {
		t.Fatalf("unexpected final assistant message: %+v", messages[6])
	}
}

func TestToWireMessages_SkipsUnansweredToolResponses(t *testing.T) {
	entries := []llms.Entry{
		{Role: llms.RoleUser, Content: "prompt"},
		{
			Role: llms.RoleAssistant,
			ToolCalls: []llms.ToolCall{
				{ID: "call_1", Name: "play_music", Arguments: `{}`},
			},
		},
	}

	messages := toWireMessages("", entries)

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if len(messages[1].ToolCalls) != 1 {
		t.Fatalf("expected the pending tool call to be preserved: %+v", messages[1])
	}
}

func TestToWireTools_MapsSpecToFunction(t *testing.T) {
	specs := []llms.ToolSpec{
		{
			Name:        "play_music",
			Description: "Play a music genre",
			Schema: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"genre"},
			},
		},
	}

	tools := toWireTools(specs)

	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Type != "function" {
		t.Fatalf("unexpected tool type: %q", tools[0].Type)
	}
	if tools[0].Function.Name != "play_music" || tools[0].Function.Description != "Play a music genre" {
		t.Fatalf("unexpected tool function: %+v", tools[0].Function)
	}
	if tools[0].Function.Parameters == nil || len(tools[0].Function.Parameters.Required) != 1 {
		t.Fatalf("tool schema was not carried over: %+v", tools[0].Function.Parameters)
	}
}
