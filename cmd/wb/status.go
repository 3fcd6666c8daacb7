package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blakemckinniss/whitebox/internal/state"
	"github.com/blakemckinniss/whitebox/internal/tier"
)

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Show a session's confidence, risk, and tier",
	Long: `Display the current epistemic state of a session.

Shows:
  - Confidence score and permission tier
  - Delta to the next tier
  - Risk score and mandatory-review flag
  - Evidence and risk event counts
  - Context token estimate

With no session-id, the most recently updated session is shown.

Examples:
  wb status
  wb status s-42
  wb status -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	SessionID     string `json:"session_id"`
	Turn          int    `json:"turn"`
	Confidence    int    `json:"confidence"`
	Tier          string `json:"tier"`
	NextTier      string `json:"next_tier,omitempty"`
	NextTierDelta int    `json:"next_tier_delta,omitempty"`
	Risk          int    `json:"risk"`
	ReviewFlag    bool   `json:"review_required"`
	EvidenceCount int    `json:"evidence_count"`
	RiskEvents    int    `json:"risk_event_count"`
	TokenEstimate int    `json:"token_estimate,omitempty"`
	Updated       string `json:"updated,omitempty"`
}

// resolveSession picks an explicit session or falls back to the most
// recently updated one.
func resolveSession(store *state.Store, args []string) (*state.Record, error) {
	if len(args) == 1 {
		return store.Load(args[0]), nil
	}

	ids, err := store.List()
	if err != nil || len(ids) == 0 {
		return nil, fmt.Errorf("no sessions found; run a checkpoint first")
	}

	var latest *state.Record
	for _, id := range ids {
		rec := store.Load(id)
		if latest == nil || rec.UpdatedAt.After(latest.UpdatedAt) {
			latest = rec
		}
	}
	return latest, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := state.NewStore(cfg.BaseDir)

	rec, err := resolveSession(store, args)
	if err != nil {
		return err
	}

	out := statusOutput{
		SessionID:     rec.SessionID,
		Turn:          rec.Turn,
		Confidence:    rec.Confidence,
		Tier:          string(tier.Of(rec.Confidence)),
		Risk:          rec.Risk,
		ReviewFlag:    rec.CouncilRequired,
		EvidenceCount: len(rec.Evidence),
		RiskEvents:    len(rec.RiskEvents),
		TokenEstimate: rec.TokenEstimate,
	}
	if next, needed, ok := tier.NextThreshold(rec.Confidence); ok {
		out.NextTier = string(next)
		out.NextTierDelta = needed
	}
	if !rec.UpdatedAt.IsZero() {
		out.Updated = rec.UpdatedAt.Format("2006-01-02 15:04:05")
	}

	return render(out, func() { printStatus(out) })
}

func printStatus(out statusOutput) {
	fmt.Printf("Session %s (turn %d)\n", out.SessionID, out.Turn)
	fmt.Println("─────────────────────")
	fmt.Printf("  Confidence: %d%%  tier: %s\n", out.Confidence, out.Tier)
	if out.NextTier != "" {
		fmt.Printf("  Next tier:  %s (+%d%%)\n", out.NextTier, out.NextTierDelta)
	}
	fmt.Printf("  Risk:       %d%%", out.Risk)
	if out.ReviewFlag {
		fmt.Print("  MANDATORY REVIEW REQUIRED")
	}
	fmt.Println()
	fmt.Printf("  Evidence:   %d items, %d risk events\n", out.EvidenceCount, out.RiskEvents)
	if out.TokenEstimate > 0 {
		fmt.Printf("  Tokens:     ~%d\n", out.TokenEstimate)
	}
	if out.Updated != "" {
		fmt.Printf("  Updated:    %s\n", out.Updated)
	}
}
