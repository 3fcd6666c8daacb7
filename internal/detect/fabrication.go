package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blakemckinniss/whitebox/internal/state"
	"github.com/blakemckinniss/whitebox/internal/transcript"
)

// claimPattern matches assistant assertions that something was verified or
// completed, capturing the claimed target: a backticked span, a quoted
// span, or the next word-like token.
var claimPattern = regexp.MustCompile(
	"(?i)\\b(?:i(?:'ve| have)?\\s+)?(?:verified|validated|confirmed|double-checked|tested)\\b[\\s:]+(?:that\\s+)?(?:the\\s+)?(`[^`]+`|\"[^\"]+\"|[A-Za-z0-9_./-]+)")

// DetectFabrication flags verification claims that have no matching
// evidence item in the session ledger. The detector does not judge whether
// the claim is true, only whether recorded evidence backs it.
func DetectFabrication(messages []transcript.Message, ledger []state.EvidenceItem) []Violation {
	var violations []Violation

	for _, msg := range messages {
		if !msg.IsAssistantText() {
			continue
		}
		for _, match := range claimPattern.FindAllStringSubmatch(msg.Content, -1) {
			target := strings.Trim(match[1], "`\"")
			if target == "" || hasEvidenceFor(ledger, target) {
				continue
			}
			violations = append(violations, Violation{
				Kind:    KindFabrication,
				Penalty: PenaltyFabrication,
				Detail:  fmt.Sprintf("claimed verification of %q with no matching evidence in the ledger", target),
			})
		}
	}
	return violations
}

// hasEvidenceFor reports whether any ledger item plausibly covers the
// claimed target. Matching is containment in either direction, case
// insensitive: a claim about "config.go" is covered by evidence for
// "internal/config/config.go".
func hasEvidenceFor(ledger []state.EvidenceItem, target string) bool {
	want := strings.ToLower(target)
	for _, item := range ledger {
		if item.Delta <= 0 {
			continue // penalties are not supporting evidence
		}
		have := strings.ToLower(item.Target)
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return true
		}
	}
	return false
}
