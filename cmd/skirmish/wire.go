//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

var contentSet = wire.NewSet(
	provideDefinition,
	provideParty,
	provideArsenal,
	provideCatalog,
	provideConditions,
)

var engineSet = wire.NewSet(
	provideSettings,
	provideSource,
	dice.NewLoggedRoller,
	combat.NewResolver,
	npc.NewSpawner,
	provideScripting,
	provideDecider,
	provideRecorder,
	wire.Struct(new(encounter.Deps), "*"),
	provideEncounter,
)

func initializeApp(cfgPath ConfigPath, encPath EncounterPath, partyPath PartyPath, color ColorOutput) (*App, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideMetrics,
		contentSet,
		engineSet,
		provideConsole,
		provideLifecycle,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
