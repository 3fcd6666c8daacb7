package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blakemckinniss/whitebox/internal/state"
	"github.com/blakemckinniss/whitebox/internal/tier"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List tracked sessions",
	Long: `List every session with a persisted record, most recent first.

Examples:
  wb sessions
  wb sessions -o json`,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

type sessionRow struct {
	SessionID  string `json:"session_id"`
	Turn       int    `json:"turn"`
	Confidence int    `json:"confidence"`
	Tier       string `json:"tier"`
	Risk       int    `json:"risk"`
	ReviewFlag bool   `json:"review_required,omitempty"`
	Updated    string `json:"updated,omitempty"`
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := state.NewStore(cfg.BaseDir)

	ids, err := store.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	rows := make([]sessionRow, 0, len(ids))
	for _, id := range ids {
		rec := store.Load(id)
		row := sessionRow{
			SessionID:  rec.SessionID,
			Turn:       rec.Turn,
			Confidence: rec.Confidence,
			Tier:       string(tier.Of(rec.Confidence)),
			Risk:       rec.Risk,
			ReviewFlag: rec.CouncilRequired,
		}
		if !rec.UpdatedAt.IsZero() {
			row.Updated = rec.UpdatedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Updated > rows[j].Updated })

	return render(rows, func() { printSessions(rows) })
}

func printSessions(rows []sessionRow) {
	if len(rows) == 0 {
		fmt.Println("No sessions tracked yet.")
		return
	}

	fmt.Printf("%-24s %5s %6s %-11s %5s  %s\n", "SESSION", "TURN", "CONF", "TIER", "RISK", "UPDATED")
	for _, r := range rows {
		flag := ""
		if r.ReviewFlag {
			flag = "  REVIEW"
		}
		fmt.Printf("%-24s %5d %5d%% %-11s %4d%%  %s%s\n",
			r.SessionID, r.Turn, r.Confidence, r.Tier, r.Risk, r.Updated, flag)
	}
}
