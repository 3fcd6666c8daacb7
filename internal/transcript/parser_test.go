package transcript

import (
	"strings"
	"testing"
)

const sampleTranscript = `{"type":"user","timestamp":"2026-03-01T10:00:00Z","message":{"role":"user","content":"please fix the config loader"}}
{"type":"assistant","timestamp":"2026-03-01T10:00:05Z","message":{"role":"assistant","content":[{"type":"text","text":"Let me read the loader first."},{"type":"tool_use","name":"Read","input":{"file_path":"internal/config/config.go"}}]}}
{"type":"user","timestamp":"2026-03-01T10:00:06Z","message":{"role":"user","content":[{"type":"tool_result","content":"package config ...","is_error":false}]}}
{"type":"assistant","timestamp":"2026-03-01T10:00:10Z","message":{"role":"assistant","content":[{"type":"tool_use","name":"Bash","input":{"command":"go test ./internal/config"}}]}}
{"type":"user","timestamp":"2026-03-01T10:00:12Z","message":{"role":"user","content":[{"type":"tool_result","content":"FAIL","is_error":true}]}}
{"type":"summary","summary":"irrelevant bookkeeping line"}
not even json
`

func TestParseSampleTranscript(t *testing.T) {
	result, err := NewParser().Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if result.MalformedLines != 1 {
		t.Errorf("malformed lines = %d, want 1", result.MalformedLines)
	}
	if len(result.Messages) != 6 {
		t.Fatalf("messages = %d, want 6", len(result.Messages))
	}

	if result.Messages[0].Type != TypeUser || !strings.Contains(result.Messages[0].Content, "config loader") {
		t.Errorf("unexpected first message: %+v", result.Messages[0])
	}

	use := result.Messages[2]
	if use.Type != TypeToolUse || use.Tool != "Read" || use.Target != "internal/config/config.go" {
		t.Errorf("unexpected tool_use: %+v", use)
	}
}

func TestParsePairsResultsWithUses(t *testing.T) {
	result, err := NewParser().Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var failed *Message
	for i := range result.Messages {
		if result.Messages[i].Type == TypeToolResult && result.Messages[i].IsError {
			failed = &result.Messages[i]
		}
	}
	if failed == nil {
		t.Fatal("expected a failed tool_result")
	}
	if failed.Tool != "Bash" || failed.Target != "go test ./internal/config" {
		t.Errorf("failed result not paired with its tool_use: %+v", failed)
	}
}

func TestParseAssistantProsePrecedesToolCalls(t *testing.T) {
	result, err := NewParser().Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !result.Messages[1].IsAssistantText() {
		t.Errorf("expected assistant prose at index 1, got %+v", result.Messages[1])
	}
	if result.Messages[2].Type != TypeToolUse {
		t.Errorf("expected tool_use after prose, got %+v", result.Messages[2])
	}
}

func TestParseCountsBytes(t *testing.T) {
	result, err := NewParser().Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Bytes != int64(len(sampleTranscript)) {
		t.Errorf("bytes = %d, want %d", result.Bytes, len(sampleTranscript))
	}
}

func TestTruncateLongContent(t *testing.T) {
	p := &Parser{MaxContentLength: 10}
	long := `{"type":"user","message":{"role":"user","content":"` + strings.Repeat("a", 50) + `"}}`

	result, err := p.Parse(strings.NewReader(long))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := result.Messages[0].Content; got != strings.Repeat("a", 10)+"... [truncated]" {
		t.Errorf("unexpected truncation: %q", got)
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := NewParser().ParseFile("/nonexistent/transcript.jsonl"); err == nil {
		t.Error("expected error for missing file")
	}
}
