package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// DefaultMaxContentLength is the truncation limit for content fields.
// Detectors work on claims and proposals, not full file dumps.
const DefaultMaxContentLength = 2000

// targetKeys are the tool input fields tried, in order, as the primary
// argument of a tool call.
var targetKeys = []string{"file_path", "command", "query", "url", "path", "pattern"}

// Parser handles streaming JSONL parsing. Malformed lines are counted and
// skipped: a gating decision must never hinge on a transcript parse error.
type Parser struct {
	// MaxContentLength is the maximum characters before truncation.
	MaxContentLength int
}

// NewParser creates a parser with default settings.
func NewParser() *Parser {
	return &Parser{MaxContentLength: DefaultMaxContentLength}
}

// rawLine mirrors the raw JSON structure of Claude Code transcript lines.
type rawLine struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   *struct {
		Role    string `json:"role"`
		Content any    `json:"content"` // string or block array
	} `json:"message,omitempty"`
}

// Result contains the parsed transcript.
type Result struct {
	Messages       []Message
	TotalLines     int
	MalformedLines int

	// Bytes is the raw transcript size, used for context-usage estimation.
	Bytes int64
}

// Parse reads JSONL from r and returns the ordered messages. Tool results
// are paired with the most recent unpaired tool_use so failure loops can
// be attributed to a tool and target.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	result := &Result{}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024) // 1MB max line size

	var pendingUse Message
	havePending := false
	for scanner.Scan() {
		line := scanner.Bytes()
		result.Bytes += int64(len(line)) + 1
		if len(line) == 0 {
			continue
		}
		result.TotalLines++

		msgs, err := p.parseLine(line)
		if err != nil {
			result.MalformedLines++
			continue
		}
		for _, m := range msgs {
			m.Index = len(result.Messages)
			switch {
			case m.Type == TypeToolUse:
				pendingUse = m
				havePending = true
			case m.Type == TypeToolResult && havePending:
				m.Tool = pendingUse.Tool
				m.Target = pendingUse.Target
				havePending = false
			}
			result.Messages = append(result.Messages, m)
		}
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("scanner error: %w", err)
	}
	return result, nil
}

// ParseFile parses a JSONL transcript by path.
func (p *Parser) ParseFile(path string) (result *Result, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return p.Parse(f)
}

// parseLine parses one JSONL line into zero or more messages. A single
// assistant line can yield prose plus tool_use entries.
func (p *Parser) parseLine(line []byte) ([]Message, error) {
	var raw rawLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if raw.Type != TypeUser && raw.Type != TypeAssistant {
		return nil, nil
	}
	if raw.Message == nil {
		return nil, nil
	}

	ts := parseTimestamp(raw.Timestamp)

	switch content := raw.Message.Content.(type) {
	case string:
		return []Message{{
			Type:      raw.Type,
			Role:      raw.Message.Role,
			Content:   p.truncate(content),
			Timestamp: ts,
		}}, nil
	case []any:
		return p.parseBlocks(raw.Type, raw.Message.Role, content, ts), nil
	default:
		return nil, nil
	}
}

// parseBlocks flattens a content block array into messages.
func (p *Parser) parseBlocks(msgType, role string, blocks []any, ts time.Time) []Message {
	var out []Message
	var text string

	for _, block := range blocks {
		bm, ok := block.(map[string]any)
		if !ok {
			continue
		}
		switch bm["type"] {
		case "text":
			if s, ok := bm["text"].(string); ok {
				text += s
			}
		case TypeToolUse:
			if m, ok := p.parseToolUse(bm, ts); ok {
				out = append(out, m)
			}
		case TypeToolResult:
			out = append(out, p.parseToolResult(bm, ts))
		}
	}

	if text != "" {
		// Prose first: a claim precedes the tool calls made after it.
		out = append([]Message{{
			Type:      msgType,
			Role:      role,
			Content:   p.truncate(text),
			Timestamp: ts,
		}}, out...)
	}
	return out
}

// parseToolUse extracts a tool invocation block.
func (p *Parser) parseToolUse(block map[string]any, ts time.Time) (Message, bool) {
	name, _ := block["name"].(string)
	if name == "" {
		return Message{}, false
	}
	m := Message{Type: TypeToolUse, Tool: name, Timestamp: ts}
	if input, ok := block["input"].(map[string]any); ok {
		for _, key := range targetKeys {
			if v, ok := input[key].(string); ok && v != "" {
				m.Target = v
				break
			}
		}
	}
	return m, true
}

// parseToolResult extracts a tool result block.
func (p *Parser) parseToolResult(block map[string]any, ts time.Time) Message {
	m := Message{Type: TypeToolResult, Timestamp: ts}
	if isErr, ok := block["is_error"].(bool); ok {
		m.IsError = isErr
	}
	switch c := block["content"].(type) {
	case string:
		m.Content = p.truncate(c)
	case []any:
		for _, item := range c {
			if im, ok := item.(map[string]any); ok {
				if s, ok := im["text"].(string); ok {
					m.Content += s
				}
			}
		}
		m.Content = p.truncate(m.Content)
	}
	return m
}

// timestampFormats lists the formats tried when parsing timestamps.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
}

// parseTimestamp parses a timestamp string, trying multiple formats.
// Returns zero time if all formats fail.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if ts, err := time.Parse(format, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// truncate limits content to MaxContentLength characters.
func (p *Parser) truncate(s string) string {
	if p.MaxContentLength <= 0 || len(s) <= p.MaxContentLength {
		return s
	}
	return s[:p.MaxContentLength] + "... [truncated]"
}
