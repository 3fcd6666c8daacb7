package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blakemckinniss/whitebox/internal/config"
	"github.com/blakemckinniss/whitebox/internal/detect"
	"github.com/blakemckinniss/whitebox/internal/diag"
	"github.com/blakemckinniss/whitebox/internal/dispatch"
	"github.com/blakemckinniss/whitebox/internal/risk"
	"github.com/blakemckinniss/whitebox/internal/state"
)

var (
	checkpointKind       string
	checkpointSession    string
	checkpointTurn       int
	checkpointTranscript string
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Run one lifecycle checkpoint",
	Long: `Read a checkpoint request from stdin, evaluate it, and write the
decision to stdout as a single JSON object.

The request is either the native form:
  {"session_id":"s-1","checkpoint_kind":"pre-action","payload":{...}}

or a Claude Code hook event (session_id, hook_event_name, tool_name,
tool_input, transcript_path), which is mapped onto the matching
checkpoint. --kind forces the checkpoint kind when the input does not
carry one.

The command always exits 0 with a well-formed decision object. A
malformed request at a gating checkpoint denies; anywhere else it
degrades to advisory-only.

Examples:
  echo '{"session_id":"s-1","checkpoint_kind":"session-start"}' | wb checkpoint
  wb checkpoint --kind pre-action   # stdin carries the hook event`,
	Run: runCheckpoint,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)

	checkpointCmd.Flags().StringVar(&checkpointKind, "kind", "", "Checkpoint kind (session-start, pre-action, post-action, session-end)")
	checkpointCmd.Flags().StringVar(&checkpointSession, "session", "", "Session ID override")
	checkpointCmd.Flags().IntVar(&checkpointTurn, "turn", 0, "Turn number override")
	checkpointCmd.Flags().StringVar(&checkpointTranscript, "transcript", "", "Transcript path override")
}

// hookEvent is the JSON shape Claude Code delivers to hook commands.
type hookEvent struct {
	SessionID      string         `json:"session_id"`
	HookEventName  string         `json:"hook_event_name"`
	ToolName       string         `json:"tool_name"`
	ToolInput      map[string]any `json:"tool_input"`
	TranscriptPath string         `json:"transcript_path"`
}

// hookEventKinds maps Claude Code hook events to checkpoint kinds.
var hookEventKinds = map[string]dispatch.Kind{
	"SessionStart": dispatch.KindSessionStart,
	"PreToolUse":   dispatch.KindPreAction,
	"PostToolUse":  dispatch.KindPostAction,
	"SessionEnd":   dispatch.KindSessionEnd,
	"Stop":         dispatch.KindSessionEnd,
}

// hookTargetKeys are checked in order for a tool's target.
var hookTargetKeys = []string{"file_path", "path", "query", "url", "pattern"}

func (e hookEvent) toRequest() dispatch.Request {
	req := dispatch.Request{
		SessionID: e.SessionID,
		Kind:      hookEventKinds[e.HookEventName],
		Payload: dispatch.Payload{
			Tool:           e.ToolName,
			TranscriptPath: e.TranscriptPath,
		},
	}
	if cmd, ok := e.ToolInput["command"].(string); ok {
		req.Payload.Command = cmd
	}
	for _, key := range hookTargetKeys {
		if v, ok := e.ToolInput[key].(string); ok && v != "" {
			req.Payload.Target = v
			break
		}
	}
	return req
}

// parseCheckpointRequest accepts the native request shape first, then the
// hook-event shape.
func parseCheckpointRequest(data []byte) (dispatch.Request, bool) {
	var req dispatch.Request
	if err := json.Unmarshal(data, &req); err == nil && req.SessionID != "" && req.Kind != "" {
		return req, true
	}

	var ev hookEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.SessionID == "" {
		return dispatch.Request{}, false
	}
	return ev.toRequest(), true
}

// applyCheckpointFlags lets flags fill or override request fields, so
// hooks can pin the checkpoint kind regardless of the event payload.
func applyCheckpointFlags(req *dispatch.Request) {
	if checkpointKind != "" {
		req.Kind = dispatch.Kind(checkpointKind)
	}
	if checkpointSession != "" {
		req.SessionID = checkpointSession
	}
	if checkpointTurn > 0 {
		req.Turn = checkpointTurn
	}
	if checkpointTranscript != "" {
		req.Payload.TranscriptPath = checkpointTranscript
	}
}

// newDispatcher wires the dispatcher from configuration. Bad extra risk
// signatures are logged and skipped rather than aborting the checkpoint.
func newDispatcher(cfg *config.Config) (*dispatch.Dispatcher, *zap.Logger) {
	log := diag.New(cfg.BaseDir)

	extra, err := cfg.ExtraSignatures()
	if err != nil {
		log.Warn("ignoring extra risk signatures", zap.Error(err))
		extra = nil
	}

	d := dispatch.New(state.NewStore(cfg.BaseDir), risk.NewTracker(extra...), log)
	d.Detect = detect.Options{
		FailureThreshold:  cfg.Detect.FailureThreshold,
		ProposalThreshold: cfg.Detect.ProposalThreshold,
		SimilarityMin:     cfg.Detect.SimilarityMin,
	}
	d.BudgetTokens = cfg.Budget.MaxTokens
	return d, log
}

// runCheckpoint never fails: whatever happens, one decision object goes
// to stdout and the exit code is 0, so a broken invocation can never
// wedge the calling hook.
func runCheckpoint(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	d, log := newDispatcher(cfg)
	defer log.Sync() //nolint:errcheck

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Error("read checkpoint request", zap.Error(err))
		emitResponse(malformedResponse())
		return
	}

	req, ok := parseCheckpointRequest(data)
	if !ok && checkpointSession != "" {
		// Flags alone can still form a request.
		req, ok = dispatch.Request{SessionID: checkpointSession}, true
	}
	applyCheckpointFlags(&req)
	if !ok || req.SessionID == "" {
		log.Warn("malformed checkpoint request", zap.Int("bytes", len(data)))
		emitResponse(malformedResponse())
		return
	}

	if dryRun {
		store := state.NewStore(cfg.BaseDir)
		emitResponse(dispatch.Response{
			Decision: dispatch.AdvisoryOnly,
			Context:  dispatch.Summary(store.Load(req.SessionID)),
		})
		return
	}

	emitResponse(d.Dispatch(req))
}

// malformedResponse renders the fail-safe decision for unparseable input:
// gating kinds deny, everything else degrades to advisory.
func malformedResponse() dispatch.Response {
	if dispatch.Kind(checkpointKind) == dispatch.KindPreAction {
		return dispatch.Response{
			Decision: dispatch.Deny,
			Reason:   "could not evaluate, denying for safety",
		}
	}
	return dispatch.Response{
		Decision: dispatch.AdvisoryOnly,
		Context:  "malformed checkpoint request",
	}
}

func emitResponse(resp dispatch.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		fmt.Println(`{"decision":"advisory-only"}`)
		return
	}
	fmt.Println(string(data))
}
