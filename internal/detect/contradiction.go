package detect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/blakemckinniss/whitebox/internal/state"
	"github.com/blakemckinniss/whitebox/internal/transcript"
)

// copulaPattern gates which sentences count as factual statements.
var copulaPattern = regexp.MustCompile(`(?i)\b(is|are|was|were|does|do|did|has|have|had|can|cannot|will|works|exists|supports)\b`)

// contractions are expanded before negation analysis so "isn't" and
// "is not" land on the same core.
var contractions = strings.NewReplacer(
	"isn't", "is not",
	"aren't", "are not",
	"wasn't", "was not",
	"weren't", "were not",
	"doesn't", "does not",
	"don't", "do not",
	"didn't", "did not",
	"hasn't", "has not",
	"haven't", "have not",
	"can't", "can not",
	"cannot", "can not",
	"won't", "will not",
)

// statement is one extracted factual sentence.
type statement struct {
	core      string // normalized sentence with negations removed
	negated   bool
	text      string
	timestamp time.Time
}

// DetectContradiction flags pairs of assistant statements about the same
// fact with opposite polarity and no evidence gathered between them. A
// changed position backed by intervening evidence is learning, not
// contradiction, and is not flagged.
func DetectContradiction(messages []transcript.Message, ledger []state.EvidenceItem) []Violation {
	byCore := make(map[string][]statement)
	for _, msg := range messages {
		if !msg.IsAssistantText() {
			continue
		}
		for _, st := range extractStatements(msg) {
			byCore[st.core] = append(byCore[st.core], st)
		}
	}

	cores := make([]string, 0, len(byCore))
	for core := range byCore {
		cores = append(cores, core)
	}
	sort.Strings(cores)

	var violations []Violation
	for _, core := range cores {
		if v, ok := findConflict(byCore[core], ledger); ok {
			violations = append(violations, v)
		}
	}
	return violations
}

// findConflict looks for the first opposite-polarity pair among statements
// sharing a core, unjustified by intervening evidence.
func findConflict(stmts []statement, ledger []state.EvidenceItem) (Violation, bool) {
	for i := 0; i < len(stmts); i++ {
		for j := i + 1; j < len(stmts); j++ {
			a, b := stmts[i], stmts[j]
			if a.negated == b.negated {
				continue
			}
			if evidenceBetween(ledger, a.timestamp, b.timestamp) {
				continue
			}
			return Violation{
				Kind:    KindContradiction,
				Penalty: PenaltyContradiction,
				Detail:  fmt.Sprintf("%q contradicts earlier %q with no intervening evidence", b.text, a.text),
			}, true
		}
	}
	return Violation{}, false
}

// evidenceBetween reports whether a positive evidence item falls between
// the two statement times. Statements without usable timestamps are
// treated as justified: a missed contradiction beats a wrongful penalty.
func evidenceBetween(ledger []state.EvidenceItem, a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}
	if b.Before(a) {
		a, b = b, a
	}
	for _, item := range ledger {
		if item.Delta <= 0 {
			continue
		}
		if item.Timestamp.After(a) && item.Timestamp.Before(b) {
			return true
		}
	}
	return false
}

// extractStatements splits assistant prose into normalized factual
// statements with their negation parity.
func extractStatements(msg transcript.Message) []statement {
	var out []statement
	for _, raw := range splitSentences(msg.Content) {
		norm := contractions.Replace(normalizeText(raw))
		if !copulaPattern.MatchString(norm) {
			continue
		}
		words := strings.Fields(norm)
		if len(words) < 3 || len(words) > 30 {
			continue
		}

		negations := 0
		core := make([]string, 0, len(words))
		for _, w := range words {
			if w == "not" || w == "never" {
				negations++
				continue
			}
			core = append(core, w)
		}
		out = append(out, statement{
			core:      strings.Join(core, " "),
			negated:   negations%2 == 1,
			text:      strings.TrimSpace(raw),
			timestamp: msg.Timestamp,
		})
	}
	return out
}

// splitSentences breaks prose on sentence terminators and newlines.
func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
