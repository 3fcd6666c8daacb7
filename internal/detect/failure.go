package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blakemckinniss/whitebox/internal/transcript"
)

// DetectRepeatedFailure flags the same tool failing against the same
// target threshold or more times: the agent repeating an action and
// expecting a different result. One violation per tool/target pair, no
// matter how far past the threshold the loop ran.
func DetectRepeatedFailure(messages []transcript.Message, threshold int) []Violation {
	failures := make(map[string]int)
	for _, msg := range messages {
		if msg.Type != transcript.TypeToolResult || !msg.IsError {
			continue
		}
		if msg.Tool == "" {
			continue
		}
		failures[failureKey(msg.Tool, msg.Target)]++
	}

	// Map iteration order is random; sort keys for deterministic output.
	keys := make([]string, 0, len(failures))
	for k := range failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var violations []Violation
	for _, key := range keys {
		count := failures[key]
		if count < threshold {
			continue
		}
		tool, target, _ := strings.Cut(key, "\x00")
		violations = append(violations, Violation{
			Kind:    KindRepeatedFailure,
			Penalty: PenaltyRepeatedFailure,
			Detail:  fmt.Sprintf("%s failed %d times against %q without a change of approach", tool, count, target),
		})
	}
	return violations
}

func failureKey(tool, target string) string {
	return strings.ToLower(tool) + "\x00" + strings.ToLower(strings.TrimSpace(target))
}
