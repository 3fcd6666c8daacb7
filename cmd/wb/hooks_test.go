package main

import (
	"testing"
)

func TestGenerateHooksConfigCoversAllEvents(t *testing.T) {
	config := generateHooksConfig()

	for _, event := range checkpointEvents() {
		groups := config.GetEventGroups(event)
		if len(groups) == 0 {
			t.Errorf("event %s has no hook groups", event)
			continue
		}
		for _, g := range groups {
			for _, h := range g.Hooks {
				if !isWbManagedHookCommand(h.Command) {
					t.Errorf("event %s command %q is not wb-managed", event, h.Command)
				}
			}
		}
	}
}

func TestMergeHookEventsPreservesForeignHooks(t *testing.T) {
	hooksMap := map[string]any{
		"PreToolUse": []any{
			map[string]any{
				"matcher": "Write",
				"hooks": []any{
					map[string]any{"type": "command", "command": "other-tool lint"},
				},
			},
		},
	}

	installed := mergeHookEvents(hooksMap, generateHooksConfig())
	if installed != len(checkpointEvents()) {
		t.Errorf("installed = %d, want %d", installed, len(checkpointEvents()))
	}

	groups, ok := hooksMap["PreToolUse"].([]map[string]any)
	if !ok {
		t.Fatalf("PreToolUse groups have unexpected type %T", hooksMap["PreToolUse"])
	}
	if len(groups) != 2 {
		t.Fatalf("got %d PreToolUse groups, want foreign + wb", len(groups))
	}
	if !rawGroupIsWbManaged(groups[1]) {
		t.Error("second group should be the wb hook")
	}
	if rawGroupIsWbManaged(groups[0]) {
		t.Error("foreign group should be preserved untouched")
	}
}

func TestMergeHookEventsReplacesStaleWbHooks(t *testing.T) {
	hooksMap := map[string]any{
		"SessionStart": []any{
			map[string]any{
				"hooks": []any{
					map[string]any{"type": "command", "command": "wb checkpoint --kind session-start"},
				},
			},
		},
	}

	mergeHookEvents(hooksMap, generateHooksConfig())

	groups := hooksMap["SessionStart"].([]map[string]any)
	if len(groups) != 1 {
		t.Errorf("got %d SessionStart groups, want exactly one wb group", len(groups))
	}
}

func TestIsWbManagedHookCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"wb checkpoint --kind pre-action 2>/dev/null", true},
		{"other-tool lint", false},
		{"echo wb", false},
	}
	for _, tt := range tests {
		if got := isWbManagedHookCommand(tt.cmd); got != tt.want {
			t.Errorf("isWbManagedHookCommand(%q) = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestHookGroupToMap(t *testing.T) {
	g := HookGroup{
		Matcher: "Bash",
		Hooks:   []HookEntry{{Type: "command", Command: "wb checkpoint --kind pre-action", Timeout: 10}},
	}

	m := hookGroupToMap(g)
	if m["matcher"] != "Bash" {
		t.Errorf("matcher = %v", m["matcher"])
	}
	hooks := m["hooks"].([]map[string]any)
	if hooks[0]["timeout"] != 10 {
		t.Errorf("timeout = %v, want 10", hooks[0]["timeout"])
	}
}
