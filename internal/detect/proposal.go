package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blakemckinniss/whitebox/internal/transcript"
)

// proposalPattern marks assistant prose that proposes a course of action.
var proposalPattern = regexp.MustCompile(`(?i)^\s*(i propose|i suggest|my plan|the plan|plan:|proposal:|let's|let us|we should|we could|next,? i('ll| will))`)

// DetectProposalLoop flags the same proposal resurfacing threshold or more
// times without progress. Proposals are compared with normalized string
// similarity; one violation per cluster of near-identical proposals.
func DetectProposalLoop(messages []transcript.Message, threshold int, similarityMin float64) []Violation {
	var proposals []string
	for _, msg := range messages {
		if !msg.IsAssistantText() {
			continue
		}
		for _, para := range strings.Split(msg.Content, "\n") {
			if proposalPattern.MatchString(para) {
				proposals = append(proposals, strings.TrimSpace(para))
			}
		}
	}
	if len(proposals) < threshold {
		return nil
	}

	// Greedy clustering: each proposal joins the first cluster whose seed
	// it resembles.
	var seeds []string
	counts := make(map[int]int)
	for _, p := range proposals {
		matched := false
		for i, seed := range seeds {
			if Similarity(p, seed) >= similarityMin {
				counts[i]++
				matched = true
				break
			}
		}
		if !matched {
			seeds = append(seeds, p)
			counts[len(seeds)-1] = 1
		}
	}

	var violations []Violation
	for i, seed := range seeds {
		if counts[i] < threshold {
			continue
		}
		violations = append(violations, Violation{
			Kind:    KindProposalLoop,
			Penalty: PenaltyProposalLoop,
			Detail:  fmt.Sprintf("proposal repeated %d times without progress: %q", counts[i], excerpt(seed, 120)),
		})
	}
	return violations
}

// excerpt trims a string for violation detail display.
func excerpt(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
