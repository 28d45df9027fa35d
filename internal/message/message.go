package message

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleAgent     Role = "agent"
	RoleTool      Role = "tool"
)

// ToolCall is a delegation request carried by an assistant message.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is one entry in the append-only conversation history.
type Message struct {
	Role       Role       `json:"role"`
	Name       string     `json:"name,omitempty"` // worker or node that produced it
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Agent builds a confirmation/control message attributed to a worker.
func Agent(name, content string) Message {
	return Message{Role: RoleAgent, Name: name, Content: content}
}

func (m Message) IsAssistant() bool { return m.Role == RoleAssistant }

func (m Message) Empty() bool {
	return strings.TrimSpace(m.Content) == "" && len(m.ToolCalls) == 0
}

// FirstToolCall returns the first delegation request, if any.
func (m Message) FirstToolCall() (ToolCall, bool) {
	if len(m.ToolCalls) == 0 {
		return ToolCall{}, false
	}
	return m.ToolCalls[0], true
}

// Last returns the final message of a history, or a zero Message.
func Last(msgs []Message) Message {
	if len(msgs) == 0 {
		return Message{}
	}
	return msgs[len(msgs)-1]
}

// FirstUser returns the first user message content, if present.
func FirstUser(msgs []Message) (string, bool) {
	for _, m := range msgs {
		if m.Role == RoleUser {
			return m.Content, true
		}
	}
	return "", false
}
