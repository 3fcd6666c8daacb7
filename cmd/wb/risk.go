package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blakemckinniss/whitebox/internal/risk"
	"github.com/blakemckinniss/whitebox/internal/state"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Manage the risk ledger and review flag",
}

var riskShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session's risk events",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRiskShow,
}

var riskClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Clear the mandatory-review flag after external review",
	Long: `Record that an external review has completed and clear the
mandatory-review flag for a session.

The risk score itself is untouched: risk never decreases inside a
session, and the event ledger is retained for audit. Only the flag that
blocks further privileged work is lifted.

Examples:
  wb risk clear s-42`,
	Args: cobra.ExactArgs(1),
	RunE: runRiskClear,
}

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskShowCmd)
	riskCmd.AddCommand(riskClearCmd)
}

type riskEventOut struct {
	Turn      int    `json:"turn"`
	Delta     int    `json:"delta"`
	Category  string `json:"category,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type riskOutput struct {
	SessionID      string         `json:"session_id"`
	Risk           int            `json:"risk"`
	ReviewFlag     bool           `json:"review_required"`
	Events         []riskEventOut `json:"events"`
	SignatureCount int            `json:"signature_count"`
}

func runRiskShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := state.NewStore(cfg.BaseDir)

	rec, err := resolveSession(store, args)
	if err != nil {
		return err
	}

	extra, err := cfg.ExtraSignatures()
	if err != nil {
		return fmt.Errorf("load extra signatures: %w", err)
	}

	out := riskOutput{
		SessionID:      rec.SessionID,
		Risk:           rec.Risk,
		ReviewFlag:     rec.CouncilRequired,
		SignatureCount: len(risk.CanonicalSignatures()) + len(extra),
	}
	for _, ev := range rec.RiskEvents {
		o := riskEventOut{
			Turn:     ev.Turn,
			Delta:    ev.Delta,
			Category: ev.Category,
			Reason:   ev.Reason,
		}
		if !ev.Timestamp.IsZero() {
			o.Timestamp = ev.Timestamp.Format("15:04:05")
		}
		out.Events = append(out.Events, o)
	}

	return render(out, func() { printRisk(out) })
}

func printRisk(out riskOutput) {
	fmt.Printf("Risk for %s: %d%%", out.SessionID, out.Risk)
	if out.ReviewFlag {
		fmt.Print("  MANDATORY REVIEW REQUIRED")
	}
	fmt.Println()
	fmt.Printf("Signatures active: %d\n", out.SignatureCount)

	if len(out.Events) == 0 {
		fmt.Println("  (no dangerous actions recorded)")
		return
	}

	sort.SliceStable(out.Events, func(i, j int) bool { return out.Events[i].Turn < out.Events[j].Turn })
	fmt.Println()
	for _, ev := range out.Events {
		fmt.Printf("  turn %2d  %+4d%%  [%s] %s\n", ev.Turn, ev.Delta, ev.Category, ev.Reason)
	}
}

func runRiskClear(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := state.NewStore(cfg.BaseDir)

	rec := store.Load(args[0])
	if !rec.CouncilRequired {
		fmt.Printf("Session %s has no review flag set (risk %d%%)\n", rec.SessionID, rec.Risk)
		return nil
	}

	if dryRun {
		fmt.Printf("[dry-run] Would clear review flag for %s (risk stays at %d%%)\n", rec.SessionID, rec.Risk)
		return nil
	}

	risk.ClearCouncil(rec)
	if err := store.Save(rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("Review flag cleared for %s (risk stays at %d%%)\n", rec.SessionID, rec.Risk)
	return nil
}
