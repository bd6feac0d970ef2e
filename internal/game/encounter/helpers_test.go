package encounter_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

// fixedSrc makes every die show the same face.
type fixedSrc struct{ face int }

func (f fixedSrc) Intn(n int) int { return (f.face - 1) % n }

const goblin0 = "enemy:goblin:0"

func testArsenal(t *testing.T) *action.Arsenal {
	t.Helper()
	a, err := action.NewArsenal(
		[]*action.WeaponDef{{ID: "shortsword", Name: "Shortsword", DamageDice: "1d6", DamageBonus: 2}},
		[]*action.SpellDef{
			{ID: "scorching_ray", Name: "Scorching Ray", Level: 2, DamageDice: "2d6", Projectiles: 2, ValidTargets: []action.TargetKind{action.TargetEnemy}},
			{ID: "fireball", Name: "Fireball", Level: 3, DamageDice: "2d6", AreaOfEffect: true, AreaRadius: 1, ValidTargets: []action.TargetKind{action.TargetArea}},
		},
	)
	require.NoError(t, err)
	return a
}

func goblinTemplate(dex int) *npc.Template {
	return &npc.Template{
		ID: "goblin", Name: "Goblin", Level: 1, MaxHP: 7, AC: 12,
		Abilities: combat.Abilities{Str: 10, Dex: dex, Con: 10, Int: 10, Wis: 10, Cha: 10},
		Attacks:   []npc.AttackDef{{ID: "scimitar", Name: "Scimitar", AttackBonus: 4, DamageDice: "1d6", DamageBonus: 2}},
	}
}

func heroSnapshot() combat.Snapshot {
	return combat.Snapshot{
		ID: "hero", Name: "Hero", Level: 1, MaxHP: 20, AC: 14,
		Abilities:    combat.Abilities{Str: 16, Dex: 14, Con: 12, Int: 16, Wis: 10, Cha: 8},
		Weapons:      []string{"shortsword"},
		Spells:       []string{"scorching_ray", "fireball"},
		SpellSlots:   map[int]int{2: 1, 3: 1},
		SpellAbility: action.AbilityIntelligence,
	}
}

type fixture struct {
	goblinDex int
	src       dice.Source
	pacing    encounter.Pacing
	party     encounter.Party
	def       encounter.Definition
	sinks     encounter.Sinks
	recorder  encounter.Recorder
}

func newFixture(face int) *fixture {
	return &fixture{
		goblinDex: 14,
		src:       fixedSrc{face: face},
		pacing:    encounter.Pacing{Manual: true},
		party:     encounter.Party{Controlled: heroSnapshot()},
		def: encounter.Definition{
			Hostiles:         []npc.HostileGroup{{Type: "goblin", Count: 1}},
			HostilePositions: map[string]grid.Position{goblin0: {X: 2, Y: 2}},
		},
	}
}

func (f *fixture) deps(t *testing.T) encounter.Deps {
	t.Helper()
	arsenal := testArsenal(t)
	catalog, err := npc.NewCatalog([]*npc.Template{goblinTemplate(f.goblinDex)}, arsenal)
	require.NoError(t, err)
	roller := dice.NewLoggedRoller(f.src, zap.NewNop())
	return encounter.Deps{
		Spawner:  npc.NewSpawner(catalog, arsenal, zap.NewNop()),
		Arsenal:  arsenal,
		Resolver: combat.NewResolver(roller, condition.NewRegistry(), zap.NewNop()),
		Source:   f.src,
		Recorder: f.recorder,
		Logger:   zap.NewNop(),
	}
}

func (f *fixture) build(t *testing.T) (*encounter.Encounter, error) {
	t.Helper()
	settings := encounter.Settings{
		Grid:              grid.Grid{Width: grid.DefaultWidth, Height: grid.DefaultHeight},
		MovementAllowance: 6,
		Pacing:            f.pacing,
	}
	return encounter.New(f.def, f.party, settings, f.deps(t), f.sinks)
}

func (f *fixture) mustBuild(t *testing.T) *encounter.Encounter {
	t.Helper()
	e, err := f.build(t)
	require.NoError(t, err)
	return e
}

func combatant(t *testing.T, s encounter.State, id string) *combat.Combatant {
	t.Helper()
	for _, c := range s.Combatants {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("combatant %q not in snapshot", id)
	return nil
}

// recorder collects sink output.
type recorder struct {
	mu     sync.Mutex
	phases []encounter.Phase
	damage []combat.DamageEvent
	logs   []combat.LogEntry
	turns  []encounter.TurnKey
}

func (r *recorder) sinks() encounter.Sinks {
	return encounter.Sinks{
		Damage: func(ev combat.DamageEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.damage = append(r.damage, ev)
		},
		Log: func(entry combat.LogEntry) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.logs = append(r.logs, entry)
		},
		Phase: func(_, to encounter.Phase) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.phases = append(r.phases, to)
		},
		TurnExecuted: func(k encounter.TurnKey) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.turns = append(r.turns, k)
		},
	}
}

func (r *recorder) turnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns)
}
