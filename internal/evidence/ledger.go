// Package evidence converts observed agent actions into confidence deltas
// and appends them to the session ledger. Gains diminish on re-observation
// of the same target so confidence cannot be farmed by repeating shallow
// actions.
package evidence

import (
	"strings"
	"time"

	"github.com/blakemckinniss/whitebox/internal/state"
)

// Canonical action kinds. Raw tool names from the agent runtime are
// normalized onto these before lookup.
const (
	KindRead         = "read"
	KindSearch       = "search"
	KindVerify       = "verify"
	KindVerifyStrong = "verify-strong"
	KindPenalty      = "penalty"
)

// Base confidence gains per action kind.
const (
	GainRead         = 10
	GainSearch       = 20
	GainVerify       = 15
	GainVerifyStrong = 40

	// GainUnknown applies to action kinds outside the table. Unknown
	// actions still count for something, just not much.
	GainUnknown = 5
)

// RepeatDivisor controls the diminishing-returns curve: the nth
// observation of a target (n >= 2) gains base / (RepeatDivisor * (n-1)).
// A second read of a +10 file is therefore worth +2.
const RepeatDivisor = 5

// baseGains maps canonical kinds to their base gain.
var baseGains = map[string]int{
	KindRead:         GainRead,
	KindSearch:       GainSearch,
	KindVerify:       GainVerify,
	KindVerifyStrong: GainVerifyStrong,
}

// toolKinds normalizes agent-runtime tool names to canonical kinds.
var toolKinds = map[string]string{
	"read":      KindRead,
	"glob":      KindRead,
	"grep":      KindRead,
	"notebook":  KindRead,
	"websearch": KindSearch,
	"webfetch":  KindSearch,
	"bash":      KindVerify,
	"task":      KindSearch,
}

// NormalizeKind maps a raw tool name onto a canonical action kind. Already
// canonical kinds pass through; anything else is returned lowercased so the
// ledger still records what happened.
func NormalizeKind(tool string) string {
	k := strings.ToLower(strings.TrimSpace(tool))
	if _, ok := baseGains[k]; ok {
		return k
	}
	if mapped, ok := toolKinds[k]; ok {
		return mapped
	}
	return k
}

// BaseGain returns the base confidence gain for a canonical kind.
func BaseGain(kind string) int {
	if g, ok := baseGains[kind]; ok {
		return g
	}
	return GainUnknown
}

// Gain computes the confidence gain for the nth observation (1-based) of a
// target with the given base gain. First observations earn the full base;
// later ones decay sharply.
func Gain(base, observation int) int {
	if observation <= 1 {
		return base
	}
	return base / (RepeatDivisor * (observation - 1))
}

// Record appends an evidence item for an observed action and updates the
// record's confidence. The applied delta is returned for advisory display.
//
// The recorded delta is the effective change after clamping, so the ledger
// invariant holds exactly: the sum of all recorded deltas equals the
// record's confidence.
func Record(rec *state.Record, tool, target string) state.EvidenceItem {
	kind := NormalizeKind(tool)
	n := rec.NoteObservation(observationKey(target))
	delta := effectiveDelta(rec.Confidence, Gain(BaseGain(kind), n))

	item := state.EvidenceItem{
		Turn:      rec.Turn,
		Kind:      kind,
		Target:    target,
		Delta:     delta,
		Timestamp: time.Now().UTC(),
	}
	rec.Evidence = append(rec.Evidence, item)
	rec.Confidence += delta
	return item
}

// Penalize appends a negative evidence item (pattern violations, explicit
// resets) and updates confidence. delta must be negative or zero.
func Penalize(rec *state.Record, kind, detail string, delta int) state.EvidenceItem {
	if delta > 0 {
		delta = -delta
	}
	delta = effectiveDelta(rec.Confidence, delta)
	item := state.EvidenceItem{
		Turn:      rec.Turn,
		Kind:      KindPenalty,
		Target:    kind,
		Delta:     delta,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
	rec.Evidence = append(rec.Evidence, item)
	rec.Confidence += delta
	return item
}

// effectiveDelta trims a proposed delta so the resulting confidence stays
// in [0,100].
func effectiveDelta(confidence, delta int) int {
	return state.ClampScore(confidence+delta) - confidence
}

// observationKey normalizes a target for re-observation counting so that
// trivially different spellings of the same target collapse.
func observationKey(target string) string {
	return strings.ToLower(strings.TrimSpace(target))
}
