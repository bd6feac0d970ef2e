package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/frontend/console"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

const contentRoot = "../../content"

func shippedConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Content = config.ContentConfig{
		HostilesDir:            filepath.Join(contentRoot, "hostiles"),
		WeaponsDir:             filepath.Join(contentRoot, "weapons"),
		SpellsDir:              filepath.Join(contentRoot, "spells"),
		ConditionsDir:          filepath.Join(contentRoot, "conditions"),
		AIDir:                  filepath.Join(contentRoot, "ai"),
		AIScriptsDir:           filepath.Join(contentRoot, "scripts", "ai"),
		ScriptInstructionLimit: scripting.DefaultInstructionLimit,
	}
	cfg.Encounter.Seed = 7
	return cfg
}

func TestShippedContentBuildsEncounter(t *testing.T) {
	cfg := shippedConfig(t)
	logger := zaptest.NewLogger(t)

	arsenal, err := provideArsenal(cfg, logger)
	require.NoError(t, err)
	catalog, err := provideCatalog(cfg, arsenal, logger)
	require.NoError(t, err)
	conds, err := provideConditions(cfg)
	require.NoError(t, err)
	_, ok := conds.Get("hexed")
	assert.True(t, ok)

	src := provideSource(cfg)
	roller := dice.NewLoggedRoller(src, logger)
	mgr, cleanup := provideScripting(roller, logger)
	t.Cleanup(cleanup)
	decider, err := provideDecider(cfg, mgr, logger)
	require.NoError(t, err)
	assert.IsType(t, &ai.HTNDecider{}, decider)
	assert.True(t, mgr.HasHook("goblin_skirmisher", "enemy_bloodied"))
	assert.True(t, mgr.HasHook("shaman", "ally_needs_healing"))

	def, err := provideDefinition(EncounterPath(filepath.Join(contentRoot, "encounters", "goblin_ambush.yaml")))
	require.NoError(t, err)
	party, err := provideParty(PartyPath(filepath.Join(contentRoot, "party", "default.yaml")))
	require.NoError(t, err)
	settings, err := provideSettings(cfg)
	require.NoError(t, err)
	settings.Pacing.Manual = true

	deps := encounter.Deps{
		Spawner:  npc.NewSpawner(catalog, arsenal, logger),
		Arsenal:  arsenal,
		Resolver: combat.NewResolver(roller, conds, logger),
		Decider:  decider,
		Source:   src,
		Logger:   logger,
	}
	con := console.New(strings.NewReader(""), io.Discard, decider, console.Options{}, zap.NewNop())
	enc, err := provideEncounter(def, party, settings, deps, con)
	require.NoError(t, err)

	s := enc.Snapshot()
	assert.Len(t, s.Combatants, 7)
	assert.Equal(t, "mira", enc.ControlledID())
	shaman := findByID(s.Combatants, "enemy:goblin_shaman:0")
	require.NotNil(t, shaman)
	assert.Equal(t, 7, shaman.Position.X)
}

func TestProvideDecider_WithoutAIDirUsesHeuristic(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Content.AIDir = filepath.Join(t.TempDir(), "missing")
	mgr, cleanup := provideScripting(dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop()), zap.NewNop())
	t.Cleanup(cleanup)

	d, err := provideDecider(cfg, mgr, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ai.Heuristic{}, d)
}

func TestProvideRecorder_NilWhenMetricsDisabled(t *testing.T) {
	cfg := shippedConfig(t)
	m := provideMetrics(cfg)
	assert.Nil(t, provideRecorder(cfg, m))

	cfg.Metrics.Enabled = true
	assert.NotNil(t, provideRecorder(cfg, m))
}

func TestProvideSettings_RejectsBadGrid(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Encounter.GridWidth = 0
	_, err := provideSettings(cfg)
	assert.Error(t, err)
}

func findByID(cs []*combat.Combatant, id string) *combat.Combatant {
	for _, c := range cs {
		if c.ID == id {
			return c
		}
	}
	return nil
}
