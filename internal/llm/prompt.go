package llm

import (
	"fmt"
	"strings"
)

// Message roles understood by the completion backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemInstruction is the fixed system message sent with every question.
const SystemInstruction = "Answer the question based on the context."

const userTemplate = "Context: %s\nQuestion: %s"

// Message is a single prompt turn.
type Message struct {
	Role string
	Text string
}

// JoinContext concatenates retrieved passages into one context block.
func JoinContext(passages []string) string {
	return strings.Join(passages, "\n")
}

// BuildMessages frames the two-message prompt: the system instruction, then the
// user message carrying context and question.
func BuildMessages(question, context string) []Message {
	return []Message{
		{Role: RoleSystem, Text: SystemInstruction},
		{Role: RoleUser, Text: fmt.Sprintf(userTemplate, context, question)},
	}
}
