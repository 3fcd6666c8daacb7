// Package transcript provides streaming JSONL parsing for Claude Code
// conversation transcripts, reduced to what the pattern detectors need:
// ordered messages with role, text, and tool activity.
package transcript

import "time"

// Message type constants for transcript entries.
const (
	TypeUser       = "user"
	TypeAssistant  = "assistant"
	TypeToolUse    = "tool_use"
	TypeToolResult = "tool_result"
)

// Message is one ordered entry of a session transcript.
type Message struct {
	// Index is the position of this message in the transcript.
	Index int `json:"index"`

	// Type is user, assistant, tool_use, or tool_result.
	Type string `json:"type"`

	// Role is the sender role when the entry carries one.
	Role string `json:"role,omitempty"`

	// Content is the text content (assistant prose, tool output).
	Content string `json:"content,omitempty"`

	// Tool is the tool name for tool_use entries, and for tool_result
	// entries the name of the paired tool_use.
	Tool string `json:"tool,omitempty"`

	// Target is the tool's primary argument (file path, command, query).
	Target string `json:"target,omitempty"`

	// IsError marks a failed tool_result.
	IsError bool `json:"is_error,omitempty"`

	// Timestamp is when the message was recorded, zero if absent.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// IsAssistantText reports whether the message is assistant prose, the
// material the fabrication/contradiction/proposal detectors read.
func (m Message) IsAssistantText() bool {
	return m.Type == TypeAssistant && m.Content != ""
}
