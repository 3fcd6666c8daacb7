package main

import (
	"testing"

	"github.com/blakemckinniss/whitebox/internal/dispatch"
)

func TestParseCheckpointRequestNative(t *testing.T) {
	input := `{"session_id":"s-1","checkpoint_kind":"pre-action","turn":3,"payload":{"tool":"Bash","command":"ls"}}`

	req, ok := parseCheckpointRequest([]byte(input))
	if !ok {
		t.Fatal("native request should parse")
	}
	if req.SessionID != "s-1" || req.Kind != dispatch.KindPreAction || req.Turn != 3 {
		t.Errorf("parsed %+v", req)
	}
	if req.Payload.Command != "ls" {
		t.Errorf("command = %q, want ls", req.Payload.Command)
	}
}

func TestParseCheckpointRequestHookEvent(t *testing.T) {
	input := `{
		"session_id": "abc-123",
		"hook_event_name": "PreToolUse",
		"tool_name": "Bash",
		"tool_input": {"command": "rm -rf /"},
		"transcript_path": "/tmp/t.jsonl"
	}`

	req, ok := parseCheckpointRequest([]byte(input))
	if !ok {
		t.Fatal("hook event should parse")
	}
	if req.Kind != dispatch.KindPreAction {
		t.Errorf("kind = %s, want pre-action", req.Kind)
	}
	if req.Payload.Tool != "Bash" || req.Payload.Command != "rm -rf /" {
		t.Errorf("payload = %+v", req.Payload)
	}
	if req.Payload.TranscriptPath != "/tmp/t.jsonl" {
		t.Errorf("transcript = %q", req.Payload.TranscriptPath)
	}
}

func TestParseCheckpointRequestTargetKeys(t *testing.T) {
	input := `{
		"session_id": "abc-123",
		"hook_event_name": "PostToolUse",
		"tool_name": "Read",
		"tool_input": {"file_path": "internal/state/store.go"}
	}`

	req, ok := parseCheckpointRequest([]byte(input))
	if !ok {
		t.Fatal("hook event should parse")
	}
	if req.Payload.Target != "internal/state/store.go" {
		t.Errorf("target = %q", req.Payload.Target)
	}
}

func TestParseCheckpointRequestMalformed(t *testing.T) {
	for _, input := range []string{"", "not json", `{"turn": 3}`} {
		if _, ok := parseCheckpointRequest([]byte(input)); ok {
			t.Errorf("input %q should not parse", input)
		}
	}
}

func TestMalformedResponseFailSafe(t *testing.T) {
	orig := checkpointKind
	defer func() { checkpointKind = orig }()

	checkpointKind = "pre-action"
	if resp := malformedResponse(); resp.Decision != dispatch.Deny {
		t.Errorf("gating checkpoint should fail closed, got %s", resp.Decision)
	}

	checkpointKind = "post-action"
	if resp := malformedResponse(); resp.Decision != dispatch.AdvisoryOnly {
		t.Errorf("advisory checkpoint should fail open, got %s", resp.Decision)
	}
}

func TestApplyCheckpointFlagsOverride(t *testing.T) {
	orig := checkpointKind
	defer func() { checkpointKind = orig }()
	checkpointKind = "session-end"

	req := dispatch.Request{SessionID: "s-1", Kind: dispatch.KindPostAction}
	applyCheckpointFlags(&req)
	if req.Kind != dispatch.KindSessionEnd {
		t.Errorf("kind = %s, want session-end", req.Kind)
	}
}
