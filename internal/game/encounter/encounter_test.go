package encounter_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

func TestNew_LogsInitiativeAndWaits(t *testing.T) {
	rec := &recorder{}
	f := newFixture(10)
	f.sinks = rec.sinks()
	e := f.mustBuild(t)

	assert.Equal(t, encounter.PhaseInitiativeDisplay, e.Phase())
	log := e.Log()
	require.Len(t, log, 3)
	assert.Equal(t, combat.CategoryCombatStart, log[0].Category)
	assert.Equal(t, combat.CategoryInitiative, log[1].Category)
	assert.Equal(t, combat.CategoryInitiative, log[2].Category)
	assert.Equal(t, []encounter.Phase{encounter.PhaseInitiativeDisplay}, rec.phases)
	assert.Len(t, rec.logs, 3)

	s := e.Snapshot()
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, grid.Position{X: 1, Y: 2}, combatant(t, s, "hero").Position)
	assert.Equal(t, grid.Position{X: 2, Y: 2}, combatant(t, s, goblin0).Position)

	_, ok := e.CurrentTurnKey()
	assert.False(t, ok)
}

func TestNew_RejectsDefinitionWithNoKnownHostiles(t *testing.T) {
	f := newFixture(10)
	f.def = encounter.Definition{Hostiles: []npc.HostileGroup{{Type: "dragon", Count: 1}}}
	_, err := f.build(t)
	assert.ErrorIs(t, err, combat.ErrInvalidEncounterDefinition)
	assert.ErrorIs(t, err, combat.ErrUnknownHostileType)
}

func TestNew_SkipsUnknownGroupAndPlacesParty(t *testing.T) {
	f := newFixture(10)
	f.def = encounter.Definition{Hostiles: []npc.HostileGroup{
		{Type: "dragon", Count: 1},
		{Type: "goblin", Count: 2},
	}}
	f.party.Allies = []combat.Snapshot{{ID: "ally", Name: "Ally", MaxHP: 10, AC: 12, Weapons: []string{"shortsword"}}}
	e := f.mustBuild(t)

	s := e.Snapshot()
	require.Len(t, s.Combatants, 4)
	assert.Equal(t, grid.Position{X: 0, Y: 1}, combatant(t, s, "ally").Position)
	g0 := combatant(t, s, "enemy:goblin:0")
	g1 := combatant(t, s, "enemy:goblin:1")
	assert.Equal(t, "Goblin 1", g0.Name)
	assert.Equal(t, "Goblin 2", g1.Name)
	assert.Len(t, s.Order, 4)
}

func TestBegin_OnlyFromInitiativeDisplay(t *testing.T) {
	e := newFixture(10).mustBuild(t)
	require.NoError(t, e.Begin())
	assert.ErrorIs(t, e.Begin(), combat.ErrWrongPhase)
}

// Scenario C: the last hostile falls to the controlled actor.
func TestVictory_AfterFinalBlow(t *testing.T) {
	rec := &recorder{}
	f := newFixture(20)
	f.sinks = rec.sinks()
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())
	require.Equal(t, encounter.PhasePlayerTurn, e.Phase())

	require.NoError(t, e.SelectAction("shortsword"))
	require.NoError(t, e.SelectTarget(goblin0))

	assert.Equal(t, encounter.PhaseVictory, e.Phase())
	assert.Equal(t, []encounter.Phase{
		encounter.PhaseInitiativeDisplay,
		encounter.PhasePlayerTurn,
		encounter.PhaseVictory,
	}, rec.phases)
	log := e.Log()
	assert.Equal(t, combat.CategoryVictory, log[len(log)-1].Category)
	assert.Contains(t, categories(log), combat.CategoryDeath)
	assert.Contains(t, categories(log), combat.CategoryCritical)
	assert.Equal(t, 0, combatant(t, e.Snapshot(), goblin0).CurrentHP)
	require.Len(t, rec.damage, 1)
	assert.Equal(t, 8, rec.damage[0].Amount)

	assert.ErrorIs(t, e.EndTurn(), combat.ErrWrongPhase)
	assert.ErrorIs(t, e.SelectAction("shortsword"), combat.ErrWrongPhase)
}

// Scenario D: a hostile drops the controlled actor.
func TestDefeat_WhenControlledActorFalls(t *testing.T) {
	rec := &recorder{}
	f := newFixture(20)
	f.goblinDex = 18
	f.party.Controlled.CurrentHP = 1
	f.sinks = rec.sinks()
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())
	require.Equal(t, encounter.PhaseExecutingTurn, e.Phase())

	key, ok := e.CurrentTurnKey()
	require.True(t, ok)
	assert.Equal(t, goblin0, key.CombatantID)
	assert.True(t, e.ExecuteTurn(key))
	assert.False(t, e.ExecuteTurn(key))

	assert.Equal(t, encounter.PhaseDefeat, e.Phase())
	log := e.Log()
	assert.Equal(t, combat.CategoryDefeat, log[len(log)-1].Category)
	require.Len(t, rec.damage, 1)
	assert.Equal(t, "hero", rec.damage[0].TargetID)
	assert.Equal(t, 1, rec.turnCount())
}

// Scenario E: a dead combatant's turn is skipped without any output.
func TestDeadCombatantIsSkippedSilently(t *testing.T) {
	rec := &recorder{}
	f := newFixture(20)
	f.party.Allies = []combat.Snapshot{{
		ID: "ally", Name: "Ally", MaxHP: 10, CurrentHP: -1, AC: 12,
		Abilities: combat.Abilities{Dex: 18},
	}}
	f.sinks = rec.sinks()
	e := f.mustBuild(t)

	s := e.Snapshot()
	require.Equal(t, "ally", s.Order[0].CombatantID)
	before := len(e.Log())

	require.NoError(t, e.Begin())
	s = e.Snapshot()
	assert.Equal(t, encounter.PhasePlayerTurn, s.Phase)
	assert.Equal(t, "hero", s.Current)
	assert.Equal(t, 1, s.TurnIndex)
	assert.Len(t, e.Log(), before)
	assert.Zero(t, rec.turnCount())
	assert.Len(t, s.Order, 3)
}

func TestActionEconomy(t *testing.T) {
	f := newFixture(1)
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())
	require.Equal(t, encounter.PhasePlayerTurn, e.Phase())

	require.NoError(t, e.SelectAction("shortsword"))
	mode, err := e.ToggleMovementMode()
	require.NoError(t, err)
	assert.Equal(t, encounter.ModeMovement, mode)
	assert.Empty(t, e.Snapshot().PendingAction)

	require.NoError(t, e.SelectAction("shortsword"))
	assert.Equal(t, encounter.ModeAction, e.Snapshot().Mode)
	require.NoError(t, e.SelectTarget(goblin0))

	s := e.Snapshot()
	assert.True(t, s.ActionSpent)
	assert.Equal(t, combat.CategoryAttackMiss, s.Log[len(s.Log)-1].Category)
	assert.ErrorIs(t, e.SelectAction("shortsword"), combat.ErrActionSpent)

	require.NoError(t, e.Move(grid.Position{X: 1, Y: 3}))
	assert.ErrorIs(t, e.Move(grid.Position{X: 1, Y: 4}), combat.ErrMovementSpent)
	_, err = e.ToggleMovementMode()
	assert.ErrorIs(t, err, combat.ErrMovementSpent)
	assert.Equal(t, encounter.PhasePlayerTurn, e.Phase())

	require.NoError(t, e.EndTurn())
	require.Equal(t, encounter.PhaseExecutingTurn, e.Phase())
	key, ok := e.CurrentTurnKey()
	require.True(t, ok)
	require.True(t, e.ExecuteTurn(key))

	s = e.Snapshot()
	assert.Equal(t, encounter.PhasePlayerTurn, s.Phase)
	assert.Equal(t, 2, s.Round)
	assert.False(t, s.ActionSpent)
	assert.False(t, s.MovementSpent)
}

func TestAutoEndTurn(t *testing.T) {
	f := newFixture(1)
	f.pacing.AutoEndTurn = true
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())

	require.NoError(t, e.Move(grid.Position{X: 1, Y: 3}))
	assert.Equal(t, encounter.PhasePlayerTurn, e.Phase())
	require.NoError(t, e.SelectAction("shortsword"))
	require.NoError(t, e.SelectTarget(goblin0))
	assert.Equal(t, encounter.PhaseExecutingTurn, e.Phase())
}

func TestMove_RejectsIllegalDestinations(t *testing.T) {
	e := newFixture(1).mustBuild(t)
	require.NoError(t, e.Begin())

	for _, dest := range []grid.Position{{X: 2, Y: 2}, {X: -1, Y: 0}, {X: 8, Y: 2}} {
		assert.ErrorIs(t, e.Move(dest), combat.ErrIllegalMove, dest.String())
	}
	s := e.Snapshot()
	assert.False(t, s.MovementSpent)
	assert.Equal(t, grid.Position{X: 1, Y: 2}, combatant(t, s, "hero").Position)

	_, err := e.ToggleMovementMode()
	require.NoError(t, err)
	require.NoError(t, e.SelectCell(grid.Position{X: 0, Y: 0}))
	assert.True(t, e.Snapshot().MovementSpent)
}

func TestSelectAction_Rejections(t *testing.T) {
	f := newFixture(1)
	f.party.Controlled.SpellSlots = map[int]int{2: 1}
	f.def.HostilePositions = map[string]grid.Position{goblin0: {X: 7, Y: 5}}
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())

	assert.ErrorIs(t, e.SelectAction("fireball"), combat.ErrNoSlotAvailable)
	assert.ErrorIs(t, e.SelectAction("shortsword"), combat.ErrNoLegalTarget)
	assert.ErrorIs(t, e.SelectAction("nope"), combat.ErrUnknownAction)
	assert.ErrorIs(t, e.SelectTarget(goblin0), combat.ErrNoPendingAction)

	s := e.Snapshot()
	assert.Equal(t, encounter.ModeIdle, s.Mode)
	assert.False(t, s.ActionSpent)
	assert.Equal(t, 1, combatant(t, s, "hero").Slots.Available(2))
}

func TestMultiProjectileAccumulatesTargets(t *testing.T) {
	rec := &recorder{}
	f := newFixture(1)
	f.def = encounter.Definition{Hostiles: []npc.HostileGroup{{Type: "goblin", Count: 2}}}
	f.sinks = rec.sinks()
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())

	require.NoError(t, e.SelectAction("scorching_ray"))
	require.NoError(t, e.SelectTarget("enemy:goblin:0"))
	s := e.Snapshot()
	assert.Equal(t, []string{"enemy:goblin:0"}, s.Targets)
	assert.False(t, s.ActionSpent)

	assert.ErrorIs(t, e.SelectTarget("enemy:goblin:0"), combat.ErrNoLegalTarget)
	assert.ErrorIs(t, e.SelectTarget("hero"), combat.ErrNoLegalTarget)
	require.NoError(t, e.SelectTarget("enemy:goblin:1"))

	s = e.Snapshot()
	assert.True(t, s.ActionSpent)
	assert.Empty(t, s.Targets)
	assert.Len(t, rec.damage, 2)
	assert.Equal(t, 5, combatant(t, s, "enemy:goblin:0").CurrentHP)
	assert.Equal(t, 5, combatant(t, s, "enemy:goblin:1").CurrentHP)
	assert.Equal(t, 0, combatant(t, s, "hero").Slots.Available(2))
}

func TestMultiProjectileCappedAtLegalTargets(t *testing.T) {
	e := newFixture(1).mustBuild(t)
	require.NoError(t, e.Begin())

	require.NoError(t, e.SelectAction("scorching_ray"))
	require.NoError(t, e.SelectTarget(goblin0))
	assert.True(t, e.Snapshot().ActionSpent)
}

func TestAreaActionNeedsOccupiedFootprint(t *testing.T) {
	f := newFixture(1)
	f.def = encounter.Definition{Hostiles: []npc.HostileGroup{{Type: "goblin", Count: 2}}}
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())

	require.NoError(t, e.SelectAction("fireball"))
	assert.ErrorIs(t, e.SelectTarget("enemy:goblin:0"), combat.ErrNoLegalTarget)
	assert.ErrorIs(t, e.SelectCell(grid.Position{X: 0, Y: 5}), combat.ErrNoLegalTarget)
	assert.Equal(t, 1, combatant(t, e.Snapshot(), "hero").Slots.Available(3))

	require.NoError(t, e.SelectCell(grid.Position{X: 4, Y: 1}))
	s := e.Snapshot()
	assert.True(t, s.ActionSpent)
	assert.Equal(t, 5, combatant(t, s, "enemy:goblin:0").CurrentHP)
	assert.Equal(t, 5, combatant(t, s, "enemy:goblin:1").CurrentHP)
	assert.Equal(t, 0, combatant(t, s, "hero").Slots.Available(3))
}

func TestResolveDelayBlocksIntentsUntilResolved(t *testing.T) {
	f := newFixture(1)
	f.pacing.ResolveDelay = 20 * time.Millisecond
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())

	require.NoError(t, e.SelectAction("shortsword"))
	require.NoError(t, e.SelectTarget(goblin0))
	assert.ErrorIs(t, e.EndTurn(), combat.ErrWrongPhase)
	require.Eventually(t, func() bool { return e.Snapshot().ActionSpent }, time.Second, 5*time.Millisecond)
	assert.NoError(t, e.EndTurn())
}

func TestScheduledAutonomousTurnRuns(t *testing.T) {
	rec := &recorder{}
	f := newFixture(1)
	f.goblinDex = 18
	f.pacing = encounter.Pacing{AutonomousDelay: 5 * time.Millisecond}
	f.sinks = rec.sinks()
	e := f.mustBuild(t)
	require.NoError(t, e.Begin())

	require.Eventually(t, func() bool { return e.Phase() == encounter.PhasePlayerTurn }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.turnCount())
}

func TestReset_CancelsPendingTurn(t *testing.T) {
	rec := &recorder{}
	f := newFixture(20)
	f.goblinDex = 18
	f.pacing = encounter.Pacing{AutonomousDelay: 30 * time.Millisecond}
	f.sinks = rec.sinks()
	e := f.mustBuild(t)
	firstID := e.ID()
	require.NoError(t, e.Begin())
	stale, ok := e.CurrentTurnKey()
	require.True(t, ok)

	require.NoError(t, e.Reset())
	assert.NotEqual(t, firstID, e.ID())
	assert.Equal(t, encounter.PhaseInitiativeDisplay, e.Phase())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, encounter.PhaseInitiativeDisplay, e.Phase())
	assert.Zero(t, rec.turnCount())
	assert.Equal(t, 20, combatant(t, e.Snapshot(), "hero").CurrentHP)
	assert.False(t, e.ExecuteTurn(stale))
}

func TestSinksMayReenter(t *testing.T) {
	f := newFixture(20)
	var e *encounter.Encounter
	var seen []encounter.Phase
	f.sinks.Phase = func(_, to encounter.Phase) {
		if e != nil {
			seen = append(seen, e.Phase())
		}
	}
	e = f.mustBuild(t)
	require.NoError(t, e.Begin())
	assert.Equal(t, []encounter.Phase{encounter.PhasePlayerTurn}, seen)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e := newFixture(1).mustBuild(t)
	s := e.Snapshot()
	combatant(t, s, "hero").CurrentHP = 0
	require.NoError(t, combatant(t, s, "hero").Slots.Spend(2))
	s.Log[0].Text = "changed"

	fresh := e.Snapshot()
	assert.Equal(t, 20, combatant(t, fresh, "hero").CurrentHP)
	assert.Equal(t, 1, combatant(t, fresh, "hero").Slots.Available(2))
	assert.NotEqual(t, "changed", fresh.Log[0].Text)
}

func TestLoadDefinitionAndParty(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "encounter.yaml")
	require.NoError(t, os.WriteFile(defPath, []byte(`
hostiles:
  - type: goblin
    count: 2
hostile_positions:
  "enemy:goblin:1": {x: 6, y: 4}
controlled_start: {x: 2, y: 3}
`), 0o644))
	partyPath := filepath.Join(dir, "party.yaml")
	require.NoError(t, os.WriteFile(partyPath, []byte(`
controlled:
  id: hero
  name: Hero
  max_hp: 20
  ac: 14
  weapons: [shortsword]
allies:
  - id: ally
    name: Ally
    max_hp: 10
    ac: 12
    position: {x: 0, y: 4}
`), 0o644))

	def, err := encounter.LoadDefinition(defPath)
	require.NoError(t, err)
	party, err := encounter.LoadParty(partyPath)
	require.NoError(t, err)
	assert.Equal(t, []npc.HostileGroup{{Type: "goblin", Count: 2}}, def.Hostiles)
	assert.Equal(t, grid.Position{X: 6, Y: 4}, def.HostilePositions["enemy:goblin:1"])

	f := newFixture(10)
	f.def, f.party = def, party
	s := f.mustBuild(t).Snapshot()
	assert.Equal(t, grid.Position{X: 2, Y: 3}, combatant(t, s, "hero").Position)
	assert.Equal(t, grid.Position{X: 0, Y: 4}, combatant(t, s, "ally").Position)
	assert.Equal(t, grid.Position{X: 6, Y: 4}, combatant(t, s, "enemy:goblin:1").Position)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("hostiles: []\n"), 0o644))
	_, err = encounter.LoadDefinition(bad)
	assert.ErrorIs(t, err, combat.ErrInvalidEncounterDefinition)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("hostiles: [{type: goblin, count: 1}]\nextra: 1\n"), 0o644))
	_, err = encounter.LoadDefinition(unknown)
	assert.Error(t, err)
}

func TestEncounterInvariantsHoldThroughFullBattle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(1)
		f.src = dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		f.def = encounter.Definition{Hostiles: []npc.HostileGroup{{Type: "goblin", Count: rapid.IntRange(1, 3).Draw(rt, "goblins")}}}
		e, err := f.build(t)
		if err != nil {
			rt.Fatalf("build: %v", err)
		}
		if err := e.Begin(); err != nil {
			rt.Fatalf("begin: %v", err)
		}
		orderLen := len(e.Snapshot().Order)

		for step := 0; step < 1000 && !e.Phase().Terminal(); step++ {
			switch e.Phase() {
			case encounter.PhasePlayerTurn:
				playAdjacentAttack(e)
				if e.Phase() == encounter.PhasePlayerTurn {
					if err := e.EndTurn(); err != nil {
						rt.Fatalf("end turn: %v", err)
					}
				}
			case encounter.PhaseExecutingTurn:
				key, _ := e.CurrentTurnKey()
				if !e.ExecuteTurn(key) {
					rt.Fatalf("turn %+v did not execute", key)
				}
			}
			s := e.Snapshot()
			if len(s.Order) != orderLen {
				rt.Fatalf("turn order length changed: %d != %d", len(s.Order), orderLen)
			}
			for _, c := range s.Combatants {
				if c.CurrentHP < 0 || c.CurrentHP > c.MaxHP {
					rt.Fatalf("%s hp %d outside 0..%d", c.ID, c.CurrentHP, c.MaxHP)
				}
			}
		}
		if !e.Phase().Terminal() {
			rt.Fatalf("battle did not finish")
		}
	})
}

func playAdjacentAttack(e *encounter.Encounter) {
	s := e.Snapshot()
	var hero *combat.Combatant
	for _, c := range s.Combatants {
		if c.ID == e.ControlledID() {
			hero = c
		}
	}
	for _, c := range s.Combatants {
		if c.Kind == combat.KindHostile && !c.IsDead() && grid.Distance(hero.Position, c.Position) <= 1 {
			if e.SelectAction("shortsword") == nil {
				_ = e.SelectTarget(c.ID)
			}
			return
		}
	}
}

func categories(log []combat.LogEntry) []combat.Category {
	out := make([]combat.Category, 0, len(log))
	for _, l := range log {
		out = append(out, l.Category)
	}
	return out
}
