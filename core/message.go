package core

import (
	"fmt"
	"strings"
)

// Role values used in Content and Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// Message is one turn of a conversation as exchanged with clients. Histories
// are append-only: callers add messages, they never edit or drop them.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage returns a user authored message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// AssistantMessage returns an assistant authored message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// IsConversational reports whether the role is one of user or assistant.
func (m Message) IsConversational() bool {
	return m.Role == RoleUser || m.Role == RoleAssistant
}

// Validate checks role and content.
func (m Message) Validate() error {
	if !m.IsConversational() {
		return fmt.Errorf("unsupported role %q", m.Role)
	}
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("empty %s message", m.Role)
	}
	return nil
}

// ToContents converts a conversation history into model contents. Messages
// with roles other than user or assistant are skipped.
func ToContents(history []Message) []Content {
	contents := make([]Content, 0, len(history))
	for _, m := range history {
		if !m.IsConversational() {
			continue
		}
		contents = append(contents, NewTextContent(m.Role, m.Content))
	}
	return contents
}

// LastMessage returns the final message of the history, if any.
func LastMessage(history []Message) (Message, bool) {
	if len(history) == 0 {
		return Message{}, false
	}
	return history[len(history)-1], true
}
