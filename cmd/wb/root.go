package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blakemckinniss/whitebox/internal/config"
)

var (
	// Global flags
	dryRun  bool
	verbose bool
	output  string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wb",
	Short: "Whitebox epistemic gating for agent sessions",
	Long: `wb tracks what an agent session actually knows and gates what it is
allowed to do.

"No confidence without evidence. No action without confidence."

Core Commands:
  checkpoint   Run one lifecycle checkpoint (stdin request, stdout decision)
  status       Show a session's confidence, risk, and tier
  evidence     Inspect the evidence ledger
  risk         Manage the risk ledger and review flag
  sessions     List tracked sessions
  hooks        Install Claude Code hooks that drive the checkpoints
  version      Show version information

Confidence is earned through observed evidence, decays nothing on its
own, and unlocks permission tiers: ignorance (read-only), hypothesis
(scratch work), certainty (durable changes).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("output") {
			if cfg := loadConfig(); cfg.Output != "" {
				output = cfg.Output
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (json, table, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.whitebox/config.yaml)")
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// GetOutput returns the output format for use by subcommands.
func GetOutput() string {
	return output
}

// loadConfig builds the effective configuration, honoring --config.
func loadConfig() *config.Config {
	return config.LoadWith(cfgFile)
}

// VerbosePrintf prints only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format, args...)
	}
}
