// Package tier maps confidence to a discrete permission tier and
// authorizes requested action classes against it. The mapping is a pure
// function of confidence: no hysteresis, no hidden state.
package tier

import "fmt"

// Tier is a discrete permission level derived from confidence.
type Tier string

const (
	// Ignorance covers confidence [0,40): read-only exploration.
	Ignorance Tier = "ignorance"

	// Hypothesis covers confidence [40,71): exploratory and scratch actions.
	Hypothesis Tier = "hypothesis"

	// Certainty covers confidence [71,100]: all actions.
	Certainty Tier = "certainty"
)

// Confidence thresholds for tier boundaries.
const (
	HypothesisMin = 40
	CertaintyMin  = 71
)

// ActionClass categorizes what the agent wants to do.
type ActionClass string

const (
	// ActionRead is read-only exploration.
	ActionRead ActionClass = "read"

	// ActionScratch writes to throwaway locations (tmp files, drafts).
	ActionScratch ActionClass = "scratch"

	// ActionDurable writes to durable or production targets.
	ActionDurable ActionClass = "durable"
)

// minTiers maps each action class to the lowest tier that unlocks it.
var minTiers = map[ActionClass]Tier{
	ActionRead:    Ignorance,
	ActionScratch: Hypothesis,
	ActionDurable: Certainty,
}

// Of returns the tier for a confidence score.
func Of(confidence int) Tier {
	switch {
	case confidence >= CertaintyMin:
		return Certainty
	case confidence >= HypothesisMin:
		return Hypothesis
	default:
		return Ignorance
	}
}

// rank orders tiers for comparison.
func rank(t Tier) int {
	switch t {
	case Certainty:
		return 2
	case Hypothesis:
		return 1
	default:
		return 0
	}
}

// threshold returns the minimum confidence for a tier.
func threshold(t Tier) int {
	switch t {
	case Certainty:
		return CertaintyMin
	case Hypothesis:
		return HypothesisMin
	default:
		return 0
	}
}

// Denial explains a refused authorization and tells the caller exactly how
// much confidence is missing.
type Denial struct {
	// Class is the requested action class.
	Class ActionClass `json:"class"`

	// Current is the session's tier.
	Current Tier `json:"current"`

	// Required is the minimum tier for the class.
	Required Tier `json:"required"`

	// Next is the tier immediately above Current.
	Next Tier `json:"next"`

	// Needed is the confidence delta to reach Next, so callers can report
	// "need +N% to unlock".
	Needed int `json:"needed"`
}

// Reason renders the denial as a human-readable gate message.
func (d Denial) Reason() string {
	return fmt.Sprintf("%s actions require the %s tier (currently %s); +%d%% confidence to reach %s",
		d.Class, d.Required, d.Current, d.Needed, d.Next)
}

// Authorize checks whether the given confidence unlocks the action class.
// Unknown classes are treated as durable: the most restrictive reading is
// the safe one.
func Authorize(confidence int, class ActionClass) (bool, *Denial) {
	required, ok := minTiers[class]
	if !ok {
		class = ActionDurable
		required = minTiers[class]
	}

	current := Of(confidence)
	if rank(current) >= rank(required) {
		return true, nil
	}

	next, needed, _ := NextThreshold(confidence)
	return false, &Denial{
		Class:    class,
		Current:  current,
		Required: required,
		Next:     next,
		Needed:   needed,
	}
}

// NextThreshold returns the next tier above the given confidence and the
// confidence delta to reach it. At Certainty there is nothing above, and
// ok is false.
func NextThreshold(confidence int) (Tier, int, bool) {
	switch Of(confidence) {
	case Ignorance:
		return Hypothesis, HypothesisMin - confidence, true
	case Hypothesis:
		return Certainty, CertaintyMin - confidence, true
	default:
		return Certainty, 0, false
	}
}
