// Package encounter drives one combat encounter. It owns the phase, the
// turn order and the controlled actor's action economy, and runs the turns
// of every combatant not under direct control.
package encounter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

// DefaultMovementAllowance is the number of cells a combatant may move per turn.
const DefaultMovementAllowance = 6

// Default pacing delays.
const (
	DefaultAutonomousDelay = 500 * time.Millisecond
	DefaultResolveDelay    = 300 * time.Millisecond
)

// Pacing controls presentation delays.
type Pacing struct {
	// AutonomousDelay is the pause before an autonomous turn resolves.
	AutonomousDelay time.Duration
	// ResolveDelay is the pause between the last target being chosen and
	// the action resolving. Zero resolves immediately.
	ResolveDelay time.Duration
	// Manual leaves autonomous turns waiting for ExecuteTurn instead of
	// scheduling them.
	Manual bool
	// AutoEndTurn ends the player turn once both the action and the
	// movement have been spent.
	AutoEndTurn bool
}

// Settings are the per-encounter rules.
type Settings struct {
	Grid              grid.Grid
	MovementAllowance int
	Pacing            Pacing
}

// Deps are the collaborators an Encounter needs.
type Deps struct {
	Spawner  *npc.Spawner
	Arsenal  *action.Arsenal
	Resolver *combat.Resolver
	Decider  ai.Decider
	Source   dice.Source
	Recorder Recorder
	Logger   *zap.Logger
}

// Encounter is the single writer of encounter state. All methods are safe
// for concurrent use; at most one resolution runs at a time.
type Encounter struct {
	mu sync.Mutex

	def      Definition
	party    Party
	settings Settings
	deps     Deps
	sinks    Sinks

	id           string
	gen          uint64
	phase        Phase
	reg          *combat.Registry
	order        *combat.TurnOrder
	controlledID string
	log          []combat.LogEntry
	turn         playerTurn
	executed     map[TurnKey]struct{}
	timers       []*continuation
	outbox       []func()
}

// playerTurn is the controlled actor's action economy for one turn.
type playerTurn struct {
	mode          Mode
	pending       *action.Action
	targets       []string
	actionSpent   bool
	movementSpent bool
	resolving     bool
}

// New builds the registry and turn order for def and party and leaves the
// encounter in PhaseInitiativeDisplay.
//
// Precondition: deps.Spawner, deps.Resolver, deps.Source and deps.Logger
// must be non-nil.
// Postcondition: Returns an error wrapping combat.ErrInvalidEncounterDefinition
// when no hostile resolves or the party cannot be placed.
func New(def Definition, party Party, settings Settings, deps Deps, sinks Sinks) (*Encounter, error) {
	if deps.Spawner == nil || deps.Resolver == nil || deps.Source == nil || deps.Logger == nil {
		return nil, errors.New("encounter.New: spawner, resolver, source and logger are required")
	}
	if deps.Decider == nil {
		deps.Decider = ai.Heuristic{}
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if settings.Grid.Width <= 0 || settings.Grid.Height <= 0 {
		settings.Grid = grid.Grid{Width: grid.DefaultWidth, Height: grid.DefaultHeight}
	}
	if settings.MovementAllowance <= 0 {
		settings.MovementAllowance = DefaultMovementAllowance
	}

	e := &Encounter{def: def, party: party, settings: settings, deps: deps, sinks: sinks}
	e.mu.Lock()
	err := e.build()
	e.unlock()
	if err != nil {
		return nil, err
	}
	return e, nil
}

// build creates fresh state from the stored inputs.
func (e *Encounter) build() error {
	e.id = uuid.NewString()
	e.phase = PhaseInitializing
	e.log = nil
	e.turn = playerTurn{}
	e.executed = make(map[TurnKey]struct{})

	reg := combat.NewRegistry(e.settings.Grid)
	controlled, err := combat.FromSnapshot(e.party.Controlled, combat.KindControlled, e.deps.Arsenal)
	if err != nil {
		return fmt.Errorf("controlled actor: %w", err)
	}
	switch {
	case e.def.ControlledStart != nil:
		controlled.Position = *e.def.ControlledStart
	case e.party.Controlled.Position == nil:
		controlled.Position = grid.Position{X: 1, Y: 2}
	}
	if err := reg.Add(controlled); err != nil {
		return err
	}
	taken := []grid.Position{controlled.Position}

	allies := make([]*combat.Combatant, 0, len(e.party.Allies))
	for i, s := range e.party.Allies {
		a, err := combat.FromSnapshot(s, combat.KindAlly, e.deps.Arsenal)
		if err != nil {
			return fmt.Errorf("ally %d: %w", i, err)
		}
		if s.Position == nil {
			a.Position = grid.Position{X: 0, Y: i + 1}
		}
		if err := reg.Add(a); err != nil {
			return err
		}
		allies = append(allies, a)
		taken = append(taken, a.Position)
	}

	hostiles, err := e.deps.Spawner.Spawn(e.def.Hostiles, e.settings.Grid, e.def.HostilePositions, taken)
	if err != nil {
		return err
	}
	for _, h := range hostiles {
		if err := reg.Add(h); err != nil {
			return err
		}
	}

	order, err := combat.RollInitiative(controlled, allies, hostiles, e.deps.Source)
	if err != nil {
		return fmt.Errorf("%w: %w", combat.ErrInvalidEncounterDefinition, err)
	}
	e.reg, e.order, e.controlledID = reg, order, controlled.ID

	e.appendLog(combat.LogEntry{
		Text:     fmt.Sprintf("Combat begins! %d hostile(s) stand against you.", len(hostiles)),
		Category: combat.CategoryCombatStart,
	})
	for _, entry := range order.Entries() {
		e.appendLog(combat.LogEntry{
			Text:     fmt.Sprintf("%s rolls %d for initiative.", entry.Name, entry.Initiative),
			Category: combat.CategoryInitiative,
		})
	}
	e.deps.Logger.Info("encounter ready",
		zap.String("encounter", e.id),
		zap.Uint64("generation", e.gen),
		zap.Int("combatants", order.Len()),
	)
	e.setPhase(PhaseInitiativeDisplay)
	return nil
}

// Begin starts combat at the first combatant in initiative order.
//
// Postcondition: Returns an error wrapping combat.ErrWrongPhase unless the
// encounter is in PhaseInitiativeDisplay.
func (e *Encounter) Begin() error {
	e.mu.Lock()
	defer e.unlock()
	if e.phase != PhaseInitiativeDisplay {
		return fmt.Errorf("begin in %s: %w", e.phase, combat.ErrWrongPhase)
	}
	e.dispatch()
	return nil
}

// Reset discards all state, cancels pending continuations and rebuilds the
// encounter from the same inputs.
//
// Postcondition: any continuation scheduled before Reset is a no-op.
func (e *Encounter) Reset() error {
	e.mu.Lock()
	defer e.unlock()
	e.stopTimers()
	e.gen++
	return e.build()
}

// ID returns the encounter's id; it changes on every Reset.
func (e *Encounter) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Phase returns the current phase.
func (e *Encounter) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// ControlledID returns the controlled actor's combatant id.
func (e *Encounter) ControlledID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.controlledID
}

// Log returns a copy of every log entry so far.
func (e *Encounter) Log() []combat.LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]combat.LogEntry(nil), e.log...)
}

// CurrentTurnKey returns the key of the turn in progress.
func (e *Encounter) CurrentTurnKey() (TurnKey, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhasePlayerTurn && e.phase != PhaseExecutingTurn {
		return TurnKey{}, false
	}
	return e.currentKey(), true
}

// State is a deep copy of the encounter for readers on other goroutines.
type State struct {
	ID            string
	Phase         Phase
	Grid          grid.Grid
	Round         int
	TurnIndex     int
	Current       string
	Order         []combat.Entry
	Combatants    []*combat.Combatant
	Log           []combat.LogEntry
	Mode          Mode
	PendingAction string
	Targets       []string
	ActionSpent   bool
	MovementSpent bool
	// Resolving is set while a chosen action waits out the resolve delay.
	Resolving bool
}

// Snapshot returns a deep copy of the encounter state.
func (e *Encounter) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := State{
		ID:            e.id,
		Phase:         e.phase,
		Grid:          e.settings.Grid,
		Round:         e.order.Round(),
		TurnIndex:     e.order.Index(),
		Order:         e.order.Entries(),
		Log:           append([]combat.LogEntry(nil), e.log...),
		Mode:          e.turn.mode,
		Targets:       append([]string(nil), e.turn.targets...),
		ActionSpent:   e.turn.actionSpent,
		MovementSpent: e.turn.movementSpent,
		Resolving:     e.turn.resolving,
	}
	if cur, ok := e.order.Current(); ok {
		s.Current = cur.CombatantID
	}
	if e.turn.pending != nil {
		s.PendingAction = e.turn.pending.ID
	}
	for _, c := range e.reg.All() {
		s.Combatants = append(s.Combatants, c.Clone())
	}
	return s
}

func (e *Encounter) currentKey() TurnKey {
	cur, _ := e.order.Current()
	return TurnKey{
		Generation:  e.gen,
		Round:       e.order.Round(),
		Index:       e.order.Index(),
		CombatantID: cur.CombatantID,
	}
}

// unlock releases the lock and then delivers queued sink calls.
func (e *Encounter) unlock() {
	out := e.outbox
	e.outbox = nil
	e.mu.Unlock()
	for _, fn := range out {
		fn()
	}
}

func (e *Encounter) emit(fn func()) {
	e.outbox = append(e.outbox, fn)
}

func (e *Encounter) appendLog(entry combat.LogEntry) {
	e.log = append(e.log, entry)
	if sink := e.sinks.Log; sink != nil {
		e.emit(func() { sink(entry) })
	}
}

func (e *Encounter) setPhase(p Phase) {
	if p == e.phase {
		return
	}
	from := e.phase
	e.phase = p
	e.deps.Logger.Debug("phase change",
		zap.String("encounter", e.id),
		zap.Stringer("from", from),
		zap.Stringer("to", p),
	)
	if sink := e.sinks.Phase; sink != nil {
		e.emit(func() { sink(from, p) })
	}
}

// schedule runs fn after delay; Reset cancels it.
func (e *Encounter) schedule(delay time.Duration, fn func()) {
	live := e.timers[:0]
	for _, t := range e.timers {
		if !t.done() {
			live = append(live, t)
		}
	}
	e.timers = append(live, after(delay, fn))
}

func (e *Encounter) stopTimers() {
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = nil
}
