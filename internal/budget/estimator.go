// Package budget heuristically estimates how much of the agent's working
// context has been consumed. The estimate is purely advisory: it never
// blocks on its own, it only feeds warning conditions rendered by the
// dispatcher.
package budget

import "fmt"

// BytesPerToken is the fixed bytes-per-token heuristic. No tokenizer is
// involved; transcripts average out close enough for an advisory signal.
const BytesPerToken = 4

// DefaultBudgetTokens is the assumed context window when the caller does
// not supply a budget.
const DefaultBudgetTokens = 200000

// Advisory condition: at or past SynthesisUsagePct with confidence still
// under SynthesisConfidenceFloor, the agent is burning context without
// learning and should seek external synthesis.
const (
	SynthesisUsagePct        = 30
	SynthesisConfidenceFloor = 50
)

// EstimateTokens approximates token count for a byte size.
func EstimateTokens(sizeBytes int64) int {
	if sizeBytes <= 0 {
		return 0
	}
	return int(sizeBytes / BytesPerToken)
}

// EstimateUsage returns the consumed percentage of the context budget,
// clamped to [0,100]. A non-positive budget falls back to the default
// window.
func EstimateUsage(transcriptBytes, budgetBytes int64) int {
	if budgetBytes <= 0 {
		budgetBytes = DefaultBudgetTokens * BytesPerToken
	}
	if transcriptBytes <= 0 {
		return 0
	}
	pct := int(transcriptBytes * 100 / budgetBytes)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// NeedsSynthesis reports the advisory condition: meaningful context spend
// with little confidence to show for it.
func NeedsSynthesis(usagePct, confidence int) bool {
	return usagePct >= SynthesisUsagePct && confidence < SynthesisConfidenceFloor
}

// Advisory renders the synthesis warning for dispatcher context, or an
// empty string when the condition does not hold.
func Advisory(usagePct, confidence int) string {
	if !NeedsSynthesis(usagePct, confidence) {
		return ""
	}
	return fmt.Sprintf("context %d%% consumed with confidence at %d%%: consider seeking external synthesis before continuing", usagePct, confidence)
}
