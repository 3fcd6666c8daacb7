package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blakemckinniss/whitebox/internal/state"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Inspect the evidence ledger",
}

var evidenceReviewCmd = &cobra.Command{
	Use:   "review [session-id]",
	Short: "Show the full evidence ledger for a session",
	Long: `Display every evidence item recorded for a session, grouped by
action kind, with per-target re-observation counts.

The ledger is append-only: the clamped running sum of its deltas is the
session's confidence, so this is the complete justification for the
current score.

Examples:
  wb evidence review
  wb evidence review s-42 -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvidenceReview,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceReviewCmd)
}

type evidenceItemOut struct {
	Turn      int    `json:"turn"`
	Kind      string `json:"kind"`
	Target    string `json:"target,omitempty"`
	Delta     int    `json:"delta"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type evidenceOutput struct {
	SessionID    string            `json:"session_id"`
	Confidence   int               `json:"confidence"`
	Items        []evidenceItemOut `json:"items"`
	Observations map[string]int    `json:"observations,omitempty"`
}

func runEvidenceReview(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := state.NewStore(cfg.BaseDir)

	rec, err := resolveSession(store, args)
	if err != nil {
		return err
	}

	out := evidenceOutput{
		SessionID:    rec.SessionID,
		Confidence:   rec.Confidence,
		Observations: rec.Observations,
	}
	for _, item := range rec.Evidence {
		o := evidenceItemOut{
			Turn:   item.Turn,
			Kind:   item.Kind,
			Target: item.Target,
			Delta:  item.Delta,
			Detail: item.Detail,
		}
		if !item.Timestamp.IsZero() {
			o.Timestamp = item.Timestamp.Format("15:04:05")
		}
		out.Items = append(out.Items, o)
	}

	return render(out, func() { printEvidence(out) })
}

func printEvidence(out evidenceOutput) {
	fmt.Printf("Evidence for %s (confidence %d%%)\n", out.SessionID, out.Confidence)
	fmt.Println("──────────────────────────────")

	if len(out.Items) == 0 {
		fmt.Println("  (empty ledger)")
		return
	}

	byKind := make(map[string][]evidenceItemOut)
	for _, item := range out.Items {
		byKind[item.Kind] = append(byKind[item.Kind], item)
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		fmt.Printf("\n%s:\n", kind)
		for _, item := range byKind[kind] {
			label := item.Target
			if label == "" {
				label = item.Detail
			}
			fmt.Printf("  turn %2d  %+4d%%  %s\n", item.Turn, item.Delta, label)
		}
	}

	if len(out.Observations) > 0 {
		fmt.Println("\nRe-observations:")
		targets := make([]string, 0, len(out.Observations))
		for t, n := range out.Observations {
			if n > 1 {
				targets = append(targets, t)
			}
		}
		sort.Strings(targets)
		if len(targets) == 0 {
			fmt.Println("  (none)")
		}
		for _, t := range targets {
			fmt.Printf("  %s: %d observations\n", t, out.Observations[t])
		}
	}
}
