// Package detect runs deterministic anti-pattern detectors over a session
// transcript: fabricated claims, repeated-failure loops, self-contradiction,
// and proposal loops. Detection is heuristic, built on regex and string
// similarity against recorded evidence, not semantic truth checking.
package detect

import (
	"github.com/blakemckinniss/whitebox/internal/state"
	"github.com/blakemckinniss/whitebox/internal/transcript"
)

// Violation kinds.
const (
	KindFabrication     = "fabrication"
	KindRepeatedFailure = "repeated-failure"
	KindContradiction   = "contradiction"
	KindProposalLoop    = "proposal-loop"
)

// Canonical penalties per violation kind.
const (
	PenaltyFabrication     = -20
	PenaltyRepeatedFailure = -10
	PenaltyContradiction   = -20
	PenaltyProposalLoop    = -15
)

// MinMessages is the minimum transcript length worth analyzing. Shorter
// sessions carry too little signal and are skipped entirely.
const MinMessages = 3

// Violation is one detected behavioral anti-pattern. Violations are
// ephemeral: the dispatcher applies them as negative evidence items.
type Violation struct {
	// Kind is the detector that fired.
	Kind string `json:"kind"`

	// Penalty is the negative confidence delta to apply.
	Penalty int `json:"penalty"`

	// Detail is a human-readable evidence excerpt.
	Detail string `json:"detail"`
}

// Options tunes detector thresholds. Zero values select the defaults.
type Options struct {
	// FailureThreshold is how many failures of the same tool against the
	// same target constitute a loop (default 3).
	FailureThreshold int

	// ProposalThreshold is how many near-identical proposals constitute a
	// loop (default 3).
	ProposalThreshold int

	// SimilarityMin is the minimum similarity for two proposals to count
	// as the same (default 0.75).
	SimilarityMin float64
}

// withDefaults fills in zero-valued options.
func (o Options) withDefaults() Options {
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 3
	}
	if o.ProposalThreshold <= 0 {
		o.ProposalThreshold = 3
	}
	if o.SimilarityMin <= 0 {
		o.SimilarityMin = 0.75
	}
	return o
}

// Run executes all four detectors independently over the ordered
// transcript and the session's evidence ledger. Their violations are
// additive: multiple detectors firing in one session compound.
func Run(messages []transcript.Message, ledger []state.EvidenceItem, opts Options) []Violation {
	if len(messages) < MinMessages {
		return nil
	}
	opts = opts.withDefaults()

	var violations []Violation
	violations = append(violations, DetectFabrication(messages, ledger)...)
	violations = append(violations, DetectRepeatedFailure(messages, opts.FailureThreshold)...)
	violations = append(violations, DetectContradiction(messages, ledger)...)
	violations = append(violations, DetectProposalLoop(messages, opts.ProposalThreshold, opts.SimilarityMin)...)
	return violations
}
