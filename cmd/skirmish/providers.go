package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/frontend/console"
	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
)

// ConfigPath is the -config flag value. Empty means defaults plus
// environment.
type ConfigPath string

// EncounterPath is the -encounter flag value.
type EncounterPath string

// PartyPath is the -party flag value.
type PartyPath string

// ColorOutput enables ANSI colour on the console.
type ColorOutput bool

// App is the fully wired process.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Console   *console.Console
	Encounter *encounter.Encounter
	Metrics   *observability.Metrics
	Lifecycle *server.Lifecycle
}

func provideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideDefinition(path EncounterPath) (encounter.Definition, error) {
	return encounter.LoadDefinition(string(path))
}

func provideParty(path PartyPath) (encounter.Party, error) {
	return encounter.LoadParty(string(path))
}

func provideSettings(cfg config.Config) (encounter.Settings, error) {
	g, err := grid.New(cfg.Encounter.GridWidth, cfg.Encounter.GridHeight)
	if err != nil {
		return encounter.Settings{}, err
	}
	return encounter.Settings{
		Grid:              g,
		MovementAllowance: cfg.Encounter.MovementAllowance,
		Pacing: encounter.Pacing{
			AutonomousDelay: cfg.Encounter.AutonomousDelay,
			ResolveDelay:    cfg.Encounter.ResolveDelay,
			AutoEndTurn:     cfg.Encounter.AutoEndTurn,
		},
	}, nil
}

// provideArsenal loads weapons and spells. A missing directory yields an
// empty set so hostiles may rely on natural attacks alone.
func provideArsenal(cfg config.Config, logger *zap.Logger) (*action.Arsenal, error) {
	start := time.Now()
	var (
		weapons []*action.WeaponDef
		spells  []*action.SpellDef
		err     error
	)
	if dirExists(cfg.Content.WeaponsDir) {
		if weapons, err = action.LoadWeapons(cfg.Content.WeaponsDir); err != nil {
			return nil, err
		}
	}
	if dirExists(cfg.Content.SpellsDir) {
		if spells, err = action.LoadSpells(cfg.Content.SpellsDir); err != nil {
			return nil, err
		}
	}
	arsenal, err := action.NewArsenal(weapons, spells)
	if err != nil {
		return nil, err
	}
	logger.Info("arsenal loaded",
		zap.Int("weapons", len(weapons)),
		zap.Int("spells", len(spells)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return arsenal, nil
}

func provideCatalog(cfg config.Config, arsenal *action.Arsenal, logger *zap.Logger) (*npc.Catalog, error) {
	templates, err := npc.LoadTemplates(cfg.Content.HostilesDir)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded hostile templates", zap.Int("count", len(templates)))
	return npc.NewCatalog(templates, arsenal)
}

func provideSource(cfg config.Config) dice.Source {
	if cfg.Encounter.Seed != 0 {
		return dice.NewSeededSource(cfg.Encounter.Seed)
	}
	return dice.NewCryptoSource()
}

func provideConditions(cfg config.Config) (*condition.Registry, error) {
	if !dirExists(cfg.Content.ConditionsDir) {
		return condition.NewRegistry(), nil
	}
	return condition.LoadDirectory(cfg.Content.ConditionsDir)
}

func provideScripting(roller *dice.Roller, logger *zap.Logger) (*scripting.Manager, func()) {
	mgr := scripting.NewManager(roller, logger)
	return mgr, mgr.Close
}

// provideDecider registers a planner per AI domain, loading
// <ai_scripts_dir>/<domain id> into the domain's scope when present.
// Without an AI directory every hostile and ally uses the heuristic.
func provideDecider(cfg config.Config, mgr *scripting.Manager, logger *zap.Logger) (ai.Decider, error) {
	if cfg.Content.AIDir == "" || !dirExists(cfg.Content.AIDir) {
		return ai.Heuristic{}, nil
	}
	domains, err := ai.LoadDomains(cfg.Content.AIDir)
	if err != nil {
		return nil, err
	}
	reg := ai.NewRegistry()
	for _, d := range domains {
		scriptDir := filepath.Join(cfg.Content.AIScriptsDir, d.ID)
		if cfg.Content.AIScriptsDir != "" && dirExists(scriptDir) {
			if err := mgr.LoadScope(d.ID, scriptDir, cfg.Content.ScriptInstructionLimit); err != nil {
				return nil, err
			}
		}
		if err := reg.Register(d, mgr); err != nil {
			return nil, err
		}
	}
	logger.Info("loaded ai domains", zap.Int("count", len(domains)))
	return ai.NewHTNDecider(reg, ai.Heuristic{}, logger), nil
}

func provideMetrics(cfg config.Config) *observability.Metrics {
	return observability.NewMetrics(cfg.Metrics, prometheus.NewRegistry())
}

func provideRecorder(cfg config.Config, m *observability.Metrics) encounter.Recorder {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return m
}

func provideConsole(decider ai.Decider, color ColorOutput, logger *zap.Logger) *console.Console {
	return console.New(os.Stdin, os.Stdout, decider, console.Options{Color: bool(color), Prompt: "> "}, logger)
}

func provideEncounter(def encounter.Definition, party encounter.Party, settings encounter.Settings, deps encounter.Deps, con *console.Console) (*encounter.Encounter, error) {
	enc, err := encounter.New(def, party, settings, deps, con.Sinks())
	if err != nil {
		return nil, err
	}
	con.Attach(enc)
	return enc, nil
}

func provideLifecycle(cfg config.Config, con *console.Console, m *observability.Metrics, logger *zap.Logger) *server.Lifecycle {
	lc := server.NewLifecycle(logger)
	lc.Add("console", con)
	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		lc.Add("metrics", server.ServiceFunc(func(ctx context.Context) error {
			return m.Serve(ctx, cfg.Metrics.Addr, logger)
		}))
	}
	return lc
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
