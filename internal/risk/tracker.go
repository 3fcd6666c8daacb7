// Package risk matches attempted agent actions against a fixed table of
// dangerous-action signatures and accumulates a saturating risk score on
// the session record. Risk is monotonic: nothing inside a session lowers
// it, only an explicit external review clears the council flag.
package risk

import (
	"time"

	"github.com/google/uuid"

	"github.com/blakemckinniss/whitebox/internal/state"
)

// EventDelta is the risk increment per dangerous-action match under the
// canonical policy.
const EventDelta = 20

// Decision is the outcome of evaluating one attempted action.
type Decision struct {
	// Denied reports whether the action matched a dangerous signature.
	Denied bool `json:"denied"`

	// Category is the matched signature category (empty when allowed).
	Category string `json:"category,omitempty"`

	// Reason is the human-readable denial reason (empty when allowed).
	Reason string `json:"reason,omitempty"`

	// Risk is the session risk total after evaluation.
	Risk int `json:"risk"`

	// CouncilRequired reports that risk has saturated and an external
	// review is mandatory. Once set it is surfaced on every decision
	// until explicitly cleared.
	CouncilRequired bool `json:"council_required,omitempty"`
}

// Tracker evaluates actions against the signature table.
type Tracker struct {
	signatures []Signature
}

// NewTracker builds a tracker from the canonical table plus any extra
// signatures (typically from config). Extras are additive only.
func NewTracker(extra ...Signature) *Tracker {
	return &Tracker{signatures: append(CanonicalSignatures(), extra...)}
}

// Evaluate checks command against the signature table. On a match it
// appends a risk event to the record, bumps the saturating risk score, and
// returns a deny decision with the updated total. On no match the record
// is untouched.
func (t *Tracker) Evaluate(rec *state.Record, command string) Decision {
	for _, sig := range t.signatures {
		if !sig.Pattern.MatchString(command) {
			continue
		}

		delta := EventDelta
		if rec.Risk+delta > state.ScoreMax {
			delta = state.ScoreMax - rec.Risk
		}
		rec.RiskEvents = append(rec.RiskEvents, state.RiskEvent{
			ID:        uuid.NewString(),
			Turn:      rec.Turn,
			Delta:     delta,
			Category:  sig.Category,
			Reason:    sig.Reason,
			Timestamp: time.Now().UTC(),
		})
		rec.Risk += delta
		if rec.Risk == state.ScoreMax {
			rec.CouncilRequired = true
		}

		return Decision{
			Denied:          true,
			Category:        sig.Category,
			Reason:          sig.Reason,
			Risk:            rec.Risk,
			CouncilRequired: rec.CouncilRequired,
		}
	}

	return Decision{Risk: rec.Risk, CouncilRequired: rec.CouncilRequired}
}

// ClearCouncil records completion of the mandatory external review. This
// is the only path that clears the council flag; risk itself stays where
// it is.
func ClearCouncil(rec *state.Record) {
	rec.CouncilRequired = false
}
