// Package config provides Viper-based configuration loading for the combat engine.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EncounterConfig holds the rules and pacing of an encounter.
type EncounterConfig struct {
	GridWidth         int `mapstructure:"grid_width"`
	GridHeight        int `mapstructure:"grid_height"`
	MovementAllowance int `mapstructure:"movement_allowance"`
	// AutonomousDelay is the pause before a non-controlled combatant acts.
	AutonomousDelay time.Duration `mapstructure:"autonomous_delay"`
	// ResolveDelay is the pause between the last target pick and resolution.
	ResolveDelay time.Duration `mapstructure:"resolve_delay"`
	AutoEndTurn  bool          `mapstructure:"auto_end_turn"`
	// Seed makes dice deterministic when non-zero.
	Seed int64 `mapstructure:"seed"`
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	HostilesDir   string `mapstructure:"hostiles_dir"`
	WeaponsDir    string `mapstructure:"weapons_dir"`
	SpellsDir     string `mapstructure:"spells_dir"`
	ConditionsDir string `mapstructure:"conditions_dir"`
	// AIDir holds HTN domain files; empty disables planning.
	AIDir string `mapstructure:"ai_dir"`
	// AIScriptsDir holds one sub-directory of Lua precondition scripts per domain.
	AIScriptsDir string `mapstructure:"ai_scripts_dir"`
	// ScriptInstructionLimit caps Lua instructions per hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	// Addr serves /metrics when non-empty, e.g. "127.0.0.1:9090".
	Addr string `mapstructure:"addr"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Encounter EncounterConfig `mapstructure:"encounter"`
	Content   ContentConfig   `mapstructure:"content"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEncounter(c.Encounter); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMetrics(c.Metrics); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

const maxGridSide = 64

func validateEncounter(e EncounterConfig) error {
	var errs []string
	if e.GridWidth < 1 || e.GridWidth > maxGridSide {
		errs = append(errs, fmt.Sprintf("encounter.grid_width must be 1-%d, got %d", maxGridSide, e.GridWidth))
	}
	if e.GridHeight < 1 || e.GridHeight > maxGridSide {
		errs = append(errs, fmt.Sprintf("encounter.grid_height must be 1-%d, got %d", maxGridSide, e.GridHeight))
	}
	if e.MovementAllowance < 1 {
		errs = append(errs, fmt.Sprintf("encounter.movement_allowance must be >= 1, got %d", e.MovementAllowance))
	}
	if e.AutonomousDelay < 0 {
		errs = append(errs, "encounter.autonomous_delay must not be negative")
	}
	if e.ResolveDelay < 0 {
		errs = append(errs, "encounter.resolve_delay must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.HostilesDir == "" {
		errs = append(errs, "content.hostiles_dir must not be empty")
	}
	if c.AIScriptsDir != "" && c.AIDir == "" {
		errs = append(errs, "content.ai_scripts_dir requires content.ai_dir")
	}
	if c.ScriptInstructionLimit < 1 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 1, got %d", c.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateMetrics(m MetricsConfig) error {
	if !m.Enabled {
		return nil
	}
	if !metricName.MatchString(m.Namespace) {
		return fmt.Errorf("metrics.namespace must match %s, got %q", metricName, m.Namespace)
	}
	if m.Addr != "" && !strings.Contains(m.Addr, ":") {
		return errors.New("metrics.addr must be host:port")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment variables only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("encounter.grid_width", 8)
	v.SetDefault("encounter.grid_height", 6)
	v.SetDefault("encounter.movement_allowance", 6)
	v.SetDefault("encounter.autonomous_delay", "500ms")
	v.SetDefault("encounter.resolve_delay", "300ms")
	v.SetDefault("encounter.auto_end_turn", true)
	v.SetDefault("encounter.seed", 0)

	v.SetDefault("content.hostiles_dir", "content/hostiles")
	v.SetDefault("content.weapons_dir", "content/weapons")
	v.SetDefault("content.spells_dir", "content/spells")
	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.ai_dir", "content/ai")
	v.SetDefault("content.ai_scripts_dir", "content/scripts/ai")
	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "skirmish")
	v.SetDefault("metrics.addr", "")
}
