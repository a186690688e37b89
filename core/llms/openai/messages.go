package openai

import (
	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"

	"github.com/overtone-ai/overtone-core/core/llms"
)

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty" copier:"Schema"`
}

func toWireMessages(instructions string, entries []llms.Entry) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}

	for _, entry := range entries {
		switch entry.Role {
		case llms.RoleUser:
			messages = append(messages, message{
				Role:    messageRoleUser,
				Content: entry.Content,
			})

		case llms.RoleAssistant:
			if len(entry.ToolCalls) > 0 {
				msg := message{Role: messageRoleAssistant}
				responseMsgs := []message{}
				for _, tCall := range entry.ToolCalls {
					msg.ToolCalls = append(msg.ToolCalls, toolCall{
						ID:   tCall.ID,
						Type: "function",
						Function: toolCallFunction{
							Name:      tCall.Name,
							Arguments: tCall.Arguments,
						},
					})
					if tCall.Response != "" {
						responseMsgs = append(responseMsgs, message{
							Role:       messageRoleTool,
							Content:    tCall.Response,
							ToolCallID: tCall.ID,
						})
					}
				}

				messages = append(messages, msg)
				messages = append(messages, responseMsgs...)
			}
			if entry.Content != "" {
				messages = append(messages, message{
					Role:    messageRoleAssistant,
					Content: entry.Content,
				})
			}

		case llms.RoleTool:
			messages = append(messages, message{
				Role:       messageRoleTool,
				Content:    entry.Content,
				ToolCallID: entry.ToolCallID,
			})

		case llms.RoleSystem:
			messages = append(messages, message{
				Role:    messageRoleSystem,
				Content: entry.Content,
			})
		}
	}
	return messages
}

func toWireTools(specs []llms.ToolSpec) []tool {
	if len(specs) == 0 {
		return nil
	}

	tools := make([]tool, 0, len(specs))
	for _, spec := range specs {
		var fn toolFunction
		if err := copier.Copy(&fn, &spec); err != nil {
			logger.Warn("Failed to copy tool spec", "tool", spec.Name, "error", err)
			continue
		}
		tools = append(tools, tool{Type: "function", Function: fn})
	}
	return tools
}
