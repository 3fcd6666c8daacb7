package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	hooksDryRun bool
	hooksForce  bool
)

// HookEntry represents a single hook command (e.g., {"type": "command", "command": "..."}).
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup represents a hook group with optional matcher and a hooks array.
// Claude Code format: {"matcher": "Write|Edit", "hooks": [{"type": "command", "command": "..."}]}
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// checkpointEvents lists the Claude Code hook events wb drives, in
// lifecycle order.
func checkpointEvents() []string {
	return []string{"SessionStart", "PreToolUse", "PostToolUse", "SessionEnd"}
}

// HooksConfig holds the hooks section of Claude settings for the events
// wb manages.
type HooksConfig struct {
	SessionStart []HookGroup `json:"SessionStart,omitempty"`
	PreToolUse   []HookGroup `json:"PreToolUse,omitempty"`
	PostToolUse  []HookGroup `json:"PostToolUse,omitempty"`
	SessionEnd   []HookGroup `json:"SessionEnd,omitempty"`
}

// GetEventGroups returns the hook groups for a given event name.
func (c *HooksConfig) GetEventGroups(event string) []HookGroup {
	switch event {
	case "SessionStart":
		return c.SessionStart
	case "PreToolUse":
		return c.PreToolUse
	case "PostToolUse":
		return c.PostToolUse
	case "SessionEnd":
		return c.SessionEnd
	}
	return nil
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage Claude Code hooks that drive the checkpoints",
	Long: `The hooks command wires wb into Claude Code's hook events so every
session is gated automatically.

Subcommands:
  init      Generate hooks configuration
  install   Install hooks to ~/.claude/settings.json
  show      Display current hook configuration

The installed hooks run one checkpoint per event:
  SessionStart  wb checkpoint --kind session-start
  PreToolUse    wb checkpoint --kind pre-action    (gating, fail-closed)
  PostToolUse   wb checkpoint --kind post-action   (evidence recording)
  SessionEnd    wb checkpoint --kind session-end   (pattern analysis)

Example workflow:
  wb hooks init       # Inspect the configuration
  wb hooks install    # Install to Claude Code
  wb hooks show       # Verify coverage`,
}

var hooksInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate hooks configuration",
	Long: `Print the Claude Code hooks configuration wb would install, as JSON
suitable for manual settings.json editing.`,
	RunE: runHooksInit,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install hooks to Claude Code settings",
	Long: `Install wb hooks to ~/.claude/settings.json.

This command:
  1. Reads existing settings.json (if any)
  2. Merges wb hooks with existing configuration
  3. Creates a backup of the original settings
  4. Writes the updated configuration

Hooks from other tools are preserved. Use --force to overwrite wb hooks
that are already installed.`,
	RunE: runHooksInstall,
}

var hooksShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current hook configuration",
	Long:  `Display the current Claude Code hooks configuration from ~/.claude/settings.json.`,
	RunE:  runHooksShow,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksInitCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksShowCmd)

	hooksInstallCmd.Flags().BoolVar(&hooksDryRun, "dry-run", false, "Show what would be installed without making changes")
	hooksInstallCmd.Flags().BoolVar(&hooksForce, "force", false, "Overwrite existing wb hooks")
}

// generateHooksConfig builds the wb hook set. Each hook swallows its own
// stderr so a wb failure can never break the agent loop; the pre-action
// hook is the only one whose stdout decision Claude acts on.
func generateHooksConfig() *HooksConfig {
	return &HooksConfig{
		SessionStart: []HookGroup{
			{
				Hooks: []HookEntry{
					{Type: "command", Command: "wb checkpoint --kind session-start 2>/dev/null || true"},
				},
			},
		},
		PreToolUse: []HookGroup{
			{
				Hooks: []HookEntry{
					{Type: "command", Command: "wb checkpoint --kind pre-action 2>/dev/null", Timeout: 10},
				},
			},
		},
		PostToolUse: []HookGroup{
			{
				Hooks: []HookEntry{
					{Type: "command", Command: "wb checkpoint --kind post-action 2>/dev/null || true"},
				},
			},
		},
		SessionEnd: []HookGroup{
			{
				Hooks: []HookEntry{
					{Type: "command", Command: "wb checkpoint --kind session-end 2>/dev/null || true", Timeout: 30},
				},
			},
		},
	}
}

func runHooksInit(cmd *cobra.Command, args []string) error {
	wrapper := struct {
		Hooks *HooksConfig `json:"hooks"`
	}{Hooks: generateHooksConfig()}

	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hooks: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func loadHooksSettings(settingsPath string) (map[string]any, error) {
	rawSettings := make(map[string]any)
	data, err := os.ReadFile(settingsPath)
	if err == nil {
		if err := json.Unmarshal(data, &rawSettings); err != nil {
			return nil, fmt.Errorf("parse existing settings: %w", err)
		}
		return rawSettings, nil
	}
	if os.IsNotExist(err) {
		return rawSettings, nil
	}
	return nil, fmt.Errorf("read settings: %w", err)
}

func cloneHooksMap(rawSettings map[string]any) map[string]any {
	hooksMap := make(map[string]any)
	if existing, ok := rawSettings["hooks"].(map[string]any); ok {
		for k, v := range existing {
			hooksMap[k] = v
		}
	}
	return hooksMap
}

// mergeHookEvents installs wb hook groups into the raw hooks map,
// keeping every group that is not wb-managed.
func mergeHookEvents(hooksMap map[string]any, newHooks *HooksConfig) int {
	installed := 0
	for _, event := range checkpointEvents() {
		groups := filterNonWbHookGroups(hooksMap, event)
		newGroups := newHooks.GetEventGroups(event)
		for _, g := range newGroups {
			groups = append(groups, hookGroupToMap(g))
		}
		if len(newGroups) > 0 {
			hooksMap[event] = groups
			installed++
		}
	}
	return installed
}

func backupHooksSettings(settingsPath string) error {
	if _, err := os.Stat(settingsPath); err != nil {
		return nil
	}
	backupPath := fmt.Sprintf("%s.backup.%s", settingsPath, time.Now().Format("20060102-150405"))
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil
	}
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	fmt.Printf("Backed up existing settings to %s\n", backupPath)
	return nil
}

func writeHooksSettings(settingsPath string, rawSettings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(settingsPath), 0755); err != nil {
		return fmt.Errorf("create .claude directory: %w", err)
	}

	data, err := json.MarshalIndent(rawSettings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home directory: %w", err)
	}

	settingsPath := filepath.Join(homeDir, ".claude", "settings.json")
	rawSettings, err := loadHooksSettings(settingsPath)
	if err != nil {
		return err
	}

	if existing, ok := rawSettings["hooks"].(map[string]any); ok && !hooksForce {
		if hookGroupContainsWb(existing, "PreToolUse") {
			fmt.Println("wb hooks already installed. Use --force to overwrite.")
			return nil
		}
	}

	newHooks := generateHooksConfig()
	hooksMap := cloneHooksMap(rawSettings)
	installed := mergeHookEvents(hooksMap, newHooks)
	rawSettings["hooks"] = hooksMap

	if hooksDryRun {
		fmt.Println("[dry-run] Would write to", settingsPath)
		data, err := json.MarshalIndent(rawSettings, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal hooks settings: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if err := backupHooksSettings(settingsPath); err != nil {
		return err
	}
	if err := writeHooksSettings(settingsPath, rawSettings); err != nil {
		return err
	}

	fmt.Printf("✓ Installed wb hooks to %s\n", settingsPath)
	fmt.Println()
	fmt.Printf("Hooks installed: %d/%d events\n", installed, len(checkpointEvents()))
	for _, event := range checkpointEvents() {
		fmt.Printf("  %s\n", event)
	}
	fmt.Println()
	fmt.Println("Run 'wb hooks show' to verify the installation.")
	return nil
}

func runHooksShow(cmd *cobra.Command, args []string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home directory: %w", err)
	}

	settingsPath := filepath.Join(homeDir, ".claude", "settings.json")
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No Claude settings found at", settingsPath)
			fmt.Println("Run 'wb hooks install' to set up hooks.")
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}

	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		fmt.Println("No hooks configured in", settingsPath)
		fmt.Println("Run 'wb hooks install' to set up hooks.")
		return nil
	}

	installed := 0
	fmt.Println("Hook Event Coverage:")
	fmt.Println()
	for _, event := range checkpointEvents() {
		if hookGroupContainsWb(hooksMap, event) {
			fmt.Printf("  ✓ %-14s wb-managed\n", event)
			installed++
		} else {
			fmt.Printf("  - %-14s not installed\n", event)
		}
	}
	fmt.Println()
	fmt.Printf("%d/%d events installed\n", installed, len(checkpointEvents()))
	if installed < len(checkpointEvents()) {
		fmt.Println()
		fmt.Println("Run 'wb hooks install' for full coverage.")
	}
	return nil
}

// isWbManagedHookCommand reports whether a hook command belongs to wb.
func isWbManagedHookCommand(cmd string) bool {
	return strings.Contains(cmd, "wb checkpoint")
}

// hookGroupContainsWb checks if any hook group in the given event contains a wb command.
func hookGroupContainsWb(hooksMap map[string]any, event string) bool {
	groups, ok := hooksMap[event].([]any)
	if !ok {
		return false
	}
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		if rawGroupIsWbManaged(group) {
			return true
		}
	}
	return false
}

// rawGroupIsWbManaged checks whether a single raw hook group contains a
// wb-managed command.
func rawGroupIsWbManaged(group map[string]any) bool {
	hooks, ok := group["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		hook, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := hook["command"].(string); ok && isWbManagedHookCommand(cmd) {
			return true
		}
	}
	return false
}

// filterNonWbHookGroups returns hook groups that don't contain wb commands.
func filterNonWbHookGroups(hooksMap map[string]any, event string) []map[string]any {
	result := make([]map[string]any, 0)
	groups, ok := hooksMap[event].([]any)
	if !ok {
		return result
	}
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		if !rawGroupIsWbManaged(group) {
			result = append(result, group)
		}
	}
	return result
}

// hookGroupToMap converts a HookGroup to a map for JSON serialization.
func hookGroupToMap(g HookGroup) map[string]any {
	hooks := make([]map[string]any, len(g.Hooks))
	for i, h := range g.Hooks {
		entry := map[string]any{
			"type":    h.Type,
			"command": h.Command,
		}
		if h.Timeout > 0 {
			entry["timeout"] = h.Timeout
		}
		hooks[i] = entry
	}
	result := map[string]any{
		"hooks": hooks,
	}
	if g.Matcher != "" {
		result["matcher"] = g.Matcher
	}
	return result
}
