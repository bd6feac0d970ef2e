package encounter

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Sinks receive encounter output. Every member is optional. Sinks are
// invoked after the encounter lock is released, in emission order, so they
// may call back into the Encounter.
type Sinks struct {
	Damage       func(combat.DamageEvent)
	Healing      func(combat.HealingEvent)
	Status       func(combat.StatusEvent)
	Log          func(combat.LogEntry)
	Phase        func(from, to Phase)
	TurnExecuted func(TurnKey)
}

// Recorder observes encounter activity for metrics.
type Recorder interface {
	ActionResolved(kind, outcome string)
	TurnExecuted(kind string, elapsed time.Duration)
	EncounterFinished(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ActionResolved(string, string)      {}
func (nopRecorder) TurnExecuted(string, time.Duration) {}
func (nopRecorder) EncounterFinished(string)           {}
