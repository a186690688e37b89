package llms

import "github.com/invopop/jsonschema"

// Role describes who a conversation entry is from.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Entry is a single entry in a conversation transcript.
type Entry struct {
	Role    Role
	Content string

	// ToolCalls holds the calls requested by an assistant entry, including
	// their responses once the tools have run.
	ToolCalls []ToolCall

	// ToolCallID links a tool entry back to the call it answers.
	ToolCallID string

	// Truncated marks an assistant entry whose spoken delivery was cut off
	// before completion.
	Truncated bool
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string

	// Response is the serialized result of running the tool, empty until the
	// call has been executed.
	Response string
}

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}
