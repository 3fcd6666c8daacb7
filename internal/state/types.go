// Package state defines the per-session epistemic record and its
// file-backed store. One record exists per agent session; it carries the
// full evidence and risk-event ledgers, not just rollups, so sessions can
// be audited after the fact.
package state

import "time"

// Confidence and risk scores are both bounded to [0,100].
const (
	ScoreMin = 0
	ScoreMax = 100
)

// EvidenceItem is a recorded observation that justified a confidence
// change. Items are immutable once appended; the clamped running sum of
// their deltas equals the record's confidence.
type EvidenceItem struct {
	// Turn is the session turn on which the observation happened.
	Turn int `json:"turn"`

	// Kind is the tool or action kind (read, search, verify, penalty ...).
	Kind string `json:"kind"`

	// Target is what was observed (file path, query, command).
	Target string `json:"target,omitempty"`

	// Delta is the signed confidence change applied.
	Delta int `json:"delta"`

	// Detail carries a human-readable note (used by pattern penalties).
	Detail string `json:"detail,omitempty"`

	// Timestamp is when the item was appended.
	Timestamp time.Time `json:"timestamp"`
}

// RiskEvent is a recorded dangerous-action attempt. Events are immutable
// once appended; the clamped running sum of their deltas equals the
// record's risk score.
type RiskEvent struct {
	// ID uniquely identifies the event for audit.
	ID string `json:"id"`

	// Turn is the session turn on which the attempt happened.
	Turn int `json:"turn"`

	// Delta is the risk increment (always +20 under the canonical policy).
	Delta int `json:"delta"`

	// Category is the matched signature category.
	Category string `json:"category"`

	// Reason is the human-readable denial reason.
	Reason string `json:"reason"`

	// Timestamp is when the event was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Record is the durable epistemic state of one agent session. It is
// created on the first checkpoint, mutated by every subsequent checkpoint,
// and retained on disk after session end for audit.
type Record struct {
	// SessionID is the opaque session identifier.
	SessionID string `json:"session_id"`

	// Turn is the monotonic checkpoint counter.
	Turn int `json:"turn"`

	// Confidence is the evidence-backed knowledge score [0,100].
	Confidence int `json:"confidence"`

	// Risk is the accumulated danger score [0,100], saturating.
	Risk int `json:"risk"`

	// CouncilRequired is set once risk saturates at 100 and only an
	// explicit external review clears it.
	CouncilRequired bool `json:"council_required,omitempty"`

	// Evidence is the ordered evidence ledger.
	Evidence []EvidenceItem `json:"evidence,omitempty"`

	// RiskEvents is the ordered dangerous-action ledger.
	RiskEvents []RiskEvent `json:"risk_events,omitempty"`

	// Observations counts how many times each target has been observed,
	// feeding the diminishing-returns gain curve.
	Observations map[string]int `json:"observations,omitempty"`

	// TokenEstimate is the last context-usage estimate in tokens.
	TokenEstimate int `json:"token_estimate,omitempty"`

	// CreatedAt is when the record was first persisted.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record was last persisted.
	UpdatedAt time.Time `json:"updated_at"`
}

// ClampScore bounds a running score to [ScoreMin, ScoreMax].
func ClampScore(n int) int {
	if n < ScoreMin {
		return ScoreMin
	}
	if n > ScoreMax {
		return ScoreMax
	}
	return n
}

// ObservationCount returns how many times target has been observed so far.
func (r *Record) ObservationCount(target string) int {
	return r.Observations[target]
}

// NoteObservation increments the observation counter for target and
// returns the new count (1 for a first observation).
func (r *Record) NoteObservation(target string) int {
	if r.Observations == nil {
		r.Observations = make(map[string]int)
	}
	r.Observations[target]++
	return r.Observations[target]
}
