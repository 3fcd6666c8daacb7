// Package dispatch is the synchronous checkpoint boundary. Each agent
// lifecycle checkpoint arrives as one request, mutates the session record
// through the ledger, tracker, and gate, and leaves as one decision.
// State is reloaded fresh on every checkpoint; nothing is cached across
// invocations.
package dispatch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blakemckinniss/whitebox/internal/budget"
	"github.com/blakemckinniss/whitebox/internal/detect"
	"github.com/blakemckinniss/whitebox/internal/evidence"
	"github.com/blakemckinniss/whitebox/internal/risk"
	"github.com/blakemckinniss/whitebox/internal/state"
	"github.com/blakemckinniss/whitebox/internal/tier"
	"github.com/blakemckinniss/whitebox/internal/transcript"
)

// Kind identifies a lifecycle checkpoint.
type Kind string

const (
	KindSessionStart Kind = "session-start"
	KindPreAction    Kind = "pre-action"
	KindPostAction   Kind = "post-action"
	KindSessionEnd   Kind = "session-end"
)

// Payload carries the checkpoint-specific inputs. All fields are optional;
// a checkpoint with an empty payload still updates the turn counter.
type Payload struct {
	// Tool is the tool about to run (pre-action) or just run (post-action).
	Tool string `json:"tool,omitempty"`

	// Target is the tool's target: a file path, query, or URL.
	Target string `json:"target,omitempty"`

	// Command is the shell command text for risk screening.
	Command string `json:"command,omitempty"`

	// Class overrides the inferred action class (read, scratch, durable).
	Class string `json:"class,omitempty"`

	// TranscriptPath points at the session transcript for end-of-session
	// analysis.
	TranscriptPath string `json:"transcript_path,omitempty"`
}

// Request is one checkpoint invocation.
type Request struct {
	SessionID string  `json:"session_id"`
	Kind      Kind    `json:"checkpoint_kind"`
	Turn      int     `json:"turn,omitempty"`
	Payload   Payload `json:"payload,omitempty"`
}

// Decision is the verdict rendered back to the caller.
type Decision string

const (
	Allow        Decision = "allow"
	Deny         Decision = "deny"
	AdvisoryOnly Decision = "advisory-only"
)

// Response is the structured decision for one checkpoint. It is always
// well-formed; internal faults are logged, never surfaced as tracebacks.
type Response struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
	Context  string   `json:"context,omitempty"`
}

// failSafeReason is returned whenever a gating checkpoint cannot complete.
const failSafeReason = "could not evaluate, denying for safety"

// Dispatcher routes checkpoints to the session components.
type Dispatcher struct {
	store   *state.Store
	tracker *risk.Tracker
	log     *zap.Logger

	// Detect tunes the end-of-session pattern detectors.
	Detect detect.Options

	// BudgetTokens is the assumed context window for usage estimation.
	BudgetTokens int
}

// New builds a dispatcher. A nil tracker gets the canonical signature
// table; a nil logger discards diagnostics.
func New(store *state.Store, tracker *risk.Tracker, log *zap.Logger) *Dispatcher {
	if tracker == nil {
		tracker = risk.NewTracker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		store:        store,
		tracker:      tracker,
		log:          log,
		BudgetTokens: budget.DefaultBudgetTokens,
	}
}

// Dispatch runs one checkpoint and renders a decision. Gating checkpoints
// fail closed; everything else fails open to advisory-only.
func (d *Dispatcher) Dispatch(req Request) Response {
	switch req.Kind {
	case KindPreAction:
		return d.preAction(req)
	case KindSessionStart:
		return d.advisory(req, d.sessionStart)
	case KindPostAction:
		return d.advisory(req, d.postAction)
	case KindSessionEnd:
		return d.advisory(req, d.sessionEnd)
	default:
		d.log.Warn("unknown checkpoint kind",
			zap.String("kind", string(req.Kind)),
			zap.String("session", req.SessionID))
		return Response{
			Decision: AdvisoryOnly,
			Context:  fmt.Sprintf("unknown checkpoint kind %q", req.Kind),
		}
	}
}

// preAction screens the action through the risk tracker, then the tier
// gate. Any fault inside either path denies.
func (d *Dispatcher) preAction(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("pre-action checkpoint fault",
				zap.Any("panic", r),
				zap.String("session", req.SessionID))
			resp = Response{Decision: Deny, Reason: failSafeReason}
		}
	}()

	rec := d.store.Load(req.SessionID)
	d.touch(rec, req)

	if req.Payload.Command != "" {
		decision := d.tracker.Evaluate(rec, req.Payload.Command)
		if decision.Denied {
			if err := d.store.Save(rec); err != nil {
				d.log.Error("save after risk event", zap.Error(err),
					zap.String("session", req.SessionID))
			}
			return Response{
				Decision: Deny,
				Reason:   decision.Reason,
				Context:  Summary(rec),
			}
		}
	}

	allowed, denial := tier.Authorize(rec.Confidence, actionClass(req.Payload))
	if err := d.store.Save(rec); err != nil {
		d.log.Error("save session record", zap.Error(err),
			zap.String("session", req.SessionID))
		return Response{Decision: Deny, Reason: failSafeReason}
	}
	if !allowed {
		return Response{
			Decision: Deny,
			Reason:   denial.Reason(),
			Context:  Summary(rec),
		}
	}
	return Response{Decision: Allow, Context: Summary(rec)}
}

func (d *Dispatcher) sessionStart(req Request) Response {
	rec := d.store.Load(req.SessionID)
	d.touch(rec, req)
	if err := d.store.Save(rec); err != nil {
		d.log.Error("save session record", zap.Error(err),
			zap.String("session", req.SessionID))
	}
	return Response{Decision: AdvisoryOnly, Context: Summary(rec)}
}

func (d *Dispatcher) postAction(req Request) Response {
	rec := d.store.Load(req.SessionID)
	d.touch(rec, req)

	context := Summary(rec)
	if req.Payload.Tool != "" {
		item := evidence.Record(rec, req.Payload.Tool, req.Payload.Target)
		context = fmt.Sprintf("%s: %+d%% confidence; %s",
			item.Kind, item.Delta, Summary(rec))
	}

	if err := d.store.Save(rec); err != nil {
		d.log.Error("save session record", zap.Error(err),
			zap.String("session", req.SessionID))
	}
	return Response{Decision: AdvisoryOnly, Context: context}
}

// sessionEnd runs the pattern detectors over the transcript, applies
// violations as penalties, estimates context usage, and persists the
// final record.
func (d *Dispatcher) sessionEnd(req Request) Response {
	rec := d.store.Load(req.SessionID)
	d.touch(rec, req)

	var notes []string
	if req.Payload.TranscriptPath != "" {
		result, err := transcript.NewParser().ParseFile(req.Payload.TranscriptPath)
		if err != nil {
			d.log.Error("parse transcript", zap.Error(err),
				zap.String("path", req.Payload.TranscriptPath))
		} else {
			violations := detect.Run(result.Messages, rec.Evidence, d.Detect)
			for _, v := range violations {
				evidence.Penalize(rec, v.Kind, v.Detail, v.Penalty)
				notes = append(notes, fmt.Sprintf("%s (%d%%)", v.Kind, v.Penalty))
			}

			tokens := d.BudgetTokens
			if tokens <= 0 {
				tokens = budget.DefaultBudgetTokens
			}
			rec.TokenEstimate = budget.EstimateTokens(result.Bytes)
			usage := budget.EstimateUsage(result.Bytes, int64(tokens)*budget.BytesPerToken)
			if msg := budget.Advisory(usage, rec.Confidence); msg != "" {
				notes = append(notes, msg)
			}
		}
	}

	if err := d.store.Save(rec); err != nil {
		d.log.Error("save session record", zap.Error(err),
			zap.String("session", req.SessionID))
	}

	context := Summary(rec)
	if len(notes) > 0 {
		context = strings.Join(notes, "; ") + "; " + context
	}
	return Response{Decision: AdvisoryOnly, Context: context}
}

// advisory wraps a non-gating checkpoint so a fault degrades to an empty
// advisory instead of an error.
func (d *Dispatcher) advisory(req Request, fn func(Request) Response) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("checkpoint fault",
				zap.Any("panic", r),
				zap.String("kind", string(req.Kind)),
				zap.String("session", req.SessionID))
			resp = Response{Decision: AdvisoryOnly}
		}
	}()
	return fn(req)
}

// touch advances the turn counter. Callers that track turns themselves
// win; otherwise each checkpoint counts as one.
func (d *Dispatcher) touch(rec *state.Record, req Request) {
	if req.Turn > rec.Turn {
		rec.Turn = req.Turn
	} else {
		rec.Turn++
	}
}

// actionClass infers the tier-gate class from the payload. Explicit
// classes win; read-shaped tools pass as reads; screened shell commands
// count as scratch work; anything else is treated as durable.
func actionClass(p Payload) tier.ActionClass {
	if p.Class != "" {
		return tier.ActionClass(p.Class)
	}
	switch evidence.NormalizeKind(p.Tool) {
	case evidence.KindRead, evidence.KindSearch:
		return tier.ActionRead
	}
	if p.Command != "" {
		return tier.ActionScratch
	}
	return tier.ActionDurable
}

// Summary renders the session's standing as a one-line advisory.
func Summary(rec *state.Record) string {
	parts := []string{
		fmt.Sprintf("tier=%s confidence=%d%% risk=%d%%",
			tier.Of(rec.Confidence), rec.Confidence, rec.Risk),
	}
	if next, needed, ok := tier.NextThreshold(rec.Confidence); ok {
		parts = append(parts, fmt.Sprintf("+%d%% to %s", needed, next))
	}
	if rec.TokenEstimate > 0 {
		parts = append(parts, fmt.Sprintf("tokens~%d", rec.TokenEstimate))
	}
	if rec.CouncilRequired {
		parts = append([]string{"MANDATORY REVIEW: risk saturated, external review required"}, parts...)
	}
	return strings.Join(parts, "; ")
}
