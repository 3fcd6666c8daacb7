// Package config provides configuration management for whitebox.
// Configuration is loaded from (highest to lowest priority):
// 1. Environment variables (WHITEBOX_*)
// 2. Project config (.agents/wb/config.yaml in cwd)
// 3. Home config (~/.whitebox/config.yaml)
// 4. Defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/blakemckinniss/whitebox/internal/risk"
)

// Config holds all whitebox configuration.
type Config struct {
	// Output controls the default output format (table, json, yaml).
	Output string `yaml:"output" json:"output"`

	// BaseDir is the whitebox data directory (default: .agents/wb).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Budget holds context-usage settings.
	Budget BudgetConfig `yaml:"budget" json:"budget"`

	// Detect holds pattern-detector thresholds.
	Detect DetectConfig `yaml:"detect" json:"detect"`

	// Risk holds additive dangerous-action signatures.
	Risk RiskConfig `yaml:"risk" json:"risk"`
}

// BudgetConfig holds context-usage settings.
type BudgetConfig struct {
	// MaxTokens is the assumed context window (default: 200000).
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
}

// DetectConfig holds pattern-detector thresholds.
type DetectConfig struct {
	// FailureThreshold is the repeated-failure loop threshold (default: 3).
	FailureThreshold int `yaml:"failure_threshold" json:"failure_threshold"`

	// ProposalThreshold is the proposal-loop threshold (default: 3).
	ProposalThreshold int `yaml:"proposal_threshold" json:"proposal_threshold"`

	// SimilarityMin is the proposal similarity floor (default: 0.75).
	SimilarityMin float64 `yaml:"similarity_min" json:"similarity_min"`
}

// RiskConfig holds additive dangerous-action signatures. The canonical
// table cannot be disabled from config.
type RiskConfig struct {
	ExtraSignatures []SignatureConfig `yaml:"extra_signatures" json:"extra_signatures"`
}

// SignatureConfig is the YAML form of one extra risk signature.
type SignatureConfig struct {
	Category string `yaml:"category" json:"category"`
	Pattern  string `yaml:"pattern" json:"pattern"`
	Reason   string `yaml:"reason" json:"reason"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:  "table",
		BaseDir: ".agents/wb",
		Budget:  BudgetConfig{MaxTokens: 200000},
		Detect: DetectConfig{
			FailureThreshold:  3,
			ProposalThreshold: 3,
			SimilarityMin:     0.75,
		},
	}
}

// Load builds the effective configuration from all layers.
func Load() *Config {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		loadFile(cfg, filepath.Join(home, ".whitebox", "config.yaml"))
	}
	loadFile(cfg, filepath.Join(".agents", "wb", "config.yaml"))
	applyEnv(cfg)

	return cfg
}

// LoadWith is Load plus an explicit config file applied at the highest
// priority. An empty path is a plain Load.
func LoadWith(explicit string) *Config {
	cfg := Load()
	if explicit != "" {
		loadFile(cfg, explicit)
	}
	return cfg
}

// loadFile merges one YAML file into cfg; a missing or unreadable file is
// simply skipped.
func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, cfg) //nolint:errcheck // bad config falls back to prior layers
}

// applyEnv applies WHITEBOX_* environment overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("WHITEBOX_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("WHITEBOX_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("WHITEBOX_VERBOSE"); v == "1" || v == "true" {
		cfg.Verbose = true
	}
	if v := os.Getenv("WHITEBOX_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Budget.MaxTokens = n
		}
	}
}

// ExtraSignatures compiles the configured extra risk signatures. Entries
// that fail to compile are returned as errors rather than silently
// dropped, so a typo cannot quietly weaken the policy.
func (c *Config) ExtraSignatures() ([]risk.Signature, error) {
	var sigs []risk.Signature
	for _, sc := range c.Risk.ExtraSignatures {
		re, err := regexp.Compile(sc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile extra signature %q: %w", sc.Category, err)
		}
		reason := sc.Reason
		if reason == "" {
			reason = sc.Category
		}
		sigs = append(sigs, risk.Signature{
			Category: sc.Category,
			Pattern:  re,
			Reason:   reason,
		})
	}
	return sigs, nil
}
