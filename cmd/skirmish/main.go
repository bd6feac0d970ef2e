// Package main provides the skirmish binary: it loads an encounter and
// its party, then plays it out on the terminal.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/skirmish.yaml", "path to configuration file; empty uses defaults and SKIRMISH_* environment")
	encounterPath := flag.String("encounter", "content/encounters/goblin_ambush.yaml", "path to the encounter definition")
	partyPath := flag.String("party", "content/party/default.yaml", "path to the party definition")
	color := flag.Bool("color", true, "colour console output with ANSI escapes")
	flag.Parse()

	app, cleanup, err := initializeApp(ConfigPath(*configPath), EncounterPath(*encounterPath), PartyPath(*partyPath), ColorOutput(*color))
	if err != nil {
		log.Fatalf("initializing skirmish: %v", err)
	}
	defer cleanup()

	app.Logger.Info("encounter ready",
		zap.String("encounter", app.Encounter.ID()),
		zap.String("controlled", app.Encounter.ControlledID()),
		zap.Bool("metrics", app.Config.Metrics.Enabled),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := app.Lifecycle.Run(context.Background()); err != nil {
		app.Logger.Error("skirmish stopped with error", zap.Error(err))
		cleanup()
		log.Fatalf("skirmish: %v", err)
	}
	app.Logger.Info("skirmish exited",
		zap.String("phase", app.Encounter.Phase().String()),
		zap.Duration("uptime", time.Since(start)),
	)
}
