// Package console drives an encounter from a line-oriented terminal: it
// turns typed commands into encounter intents and prints what the
// encounter emits.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/command"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
)

// Options tune console presentation.
type Options struct {
	Color bool
	// Prompt is printed when the console waits for a command.
	Prompt string
}

type eventKind int

const (
	evLog eventKind = iota
	evPhase
	evDamage
	evHealing
)

type event struct {
	kind     eventKind
	entry    combat.LogEntry
	from, to encounter.Phase
	targetID string
}

// queue collects sink events from any goroutine without blocking the
// emitter. notify holds at most one pending wake-up.
type queue struct {
	mu     sync.Mutex
	items  []event
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(ev event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue) take() []event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Console is a terminal front end for one Encounter.
type Console struct {
	in        io.Reader
	out       io.Writer
	opts      Options
	pal       palette
	cmds      *command.Registry
	tactician ai.Decider
	logger    *zap.Logger

	enc    *encounter.Encounter
	events *queue

	// prompted is the turn the prompt header was last printed for.
	prompted *encounter.TurnKey
	// endAfter ends this turn once its pending resolution lands.
	endAfter *encounter.TurnKey
	finished bool
}

// New creates a Console reading commands from in and writing to out. The
// tactician plays the controlled actor's turn on "auto".
//
// Precondition: in, out, tactician and logger must be non-nil.
func New(in io.Reader, out io.Writer, tactician ai.Decider, opts Options, logger *zap.Logger) *Console {
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	return &Console{
		in:        in,
		out:       out,
		opts:      opts,
		pal:       palette{enabled: opts.Color},
		cmds:      command.DefaultRegistry(),
		tactician: tactician,
		logger:    logger,
		events:    newQueue(),
	}
}

// Sinks returns the encounter sinks feeding this console.
func (c *Console) Sinks() encounter.Sinks {
	return encounter.Sinks{
		Log: func(e combat.LogEntry) { c.events.push(event{kind: evLog, entry: e}) },
		Phase: func(from, to encounter.Phase) {
			c.events.push(event{kind: evPhase, from: from, to: to})
		},
		Damage:  func(d combat.DamageEvent) { c.events.push(event{kind: evDamage, targetID: d.TargetID}) },
		Healing: func(h combat.HealingEvent) { c.events.push(event{kind: evHealing, targetID: h.TargetID}) },
	}
}

// Attach binds the encounter the console drives.
func (c *Console) Attach(enc *encounter.Encounter) {
	c.enc = enc
}

// Run begins the encounter and serves commands until victory, defeat,
// "quit", end of input or ctx cancellation.
//
// Precondition: Attach must have been called.
// Postcondition: Returns nil on a normal finish, or the read error.
func (c *Console) Run(ctx context.Context) error {
	if c.enc == nil {
		return errors.New("console: no encounter attached")
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go c.read(lines, readErr, done)

	c.println(c.pal.Colorize(Dim, "Type help for commands."))
	if err := c.enc.Begin(); err != nil {
		return fmt.Errorf("beginning encounter: %w", err)
	}

	for {
		c.drain()
		if c.finished {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-c.events.notify:
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if c.handle(line) {
				return nil
			}
		}
	}
}

func (c *Console) read(lines chan<- string, readErr chan<- error, done <-chan struct{}) {
	defer close(lines)
	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-done:
			return
		}
	}
	readErr <- sc.Err()
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

// drain prints queued events, settles a pending auto end, and prompts
// when it is the controlled actor's turn.
func (c *Console) drain() {
	for {
		batch := c.events.take()
		if len(batch) == 0 {
			break
		}
		touched := make(map[string]bool)
		var order []string
		for _, ev := range batch {
			switch ev.kind {
			case evLog:
				c.println(c.pal.Entry(ev.entry))
			case evPhase:
				c.logger.Debug("phase change", zap.Stringer("from", ev.from), zap.Stringer("to", ev.to))
				if ev.to.Terminal() {
					c.finished = true
				}
			case evDamage, evHealing:
				if !touched[ev.targetID] {
					touched[ev.targetID] = true
					order = append(order, ev.targetID)
				}
			}
		}
		if len(order) > 0 {
			s := c.enc.Snapshot()
			for _, id := range order {
				if t := findCombatant(s, id); t != nil {
					c.println(c.pal.RenderHealth(t))
				}
			}
		}
	}
	if c.finished {
		c.println(c.pal.Colorf(Bold, "The encounter is over: %s.", c.enc.Phase()))
		return
	}
	c.settleAutoEnd()
	c.prompt()
}

func (c *Console) settleAutoEnd() {
	if c.endAfter == nil {
		return
	}
	key, ok := c.enc.CurrentTurnKey()
	if !ok || key != *c.endAfter || c.enc.Phase() != encounter.PhasePlayerTurn {
		c.endAfter = nil
		return
	}
	if c.enc.Snapshot().Resolving {
		return
	}
	c.endAfter = nil
	if err := c.enc.EndTurn(); err != nil {
		c.report(err)
	}
}

func (c *Console) prompt() {
	if c.enc.Phase() != encounter.PhasePlayerTurn {
		return
	}
	key, ok := c.enc.CurrentTurnKey()
	if !ok {
		return
	}
	if c.prompted == nil || *c.prompted != key {
		c.prompted = &key
		c.println(c.pal.RenderTurnHeader(c.enc.Snapshot()))
	}
	fmt.Fprint(c.out, c.opts.Prompt)
}

// handle runs one command line and reports whether the console should stop.
func (c *Console) handle(line string) bool {
	res := command.Parse(line)
	if res.Command == "" {
		return false
	}
	cmd, ok := c.cmds.Resolve(res.Command)
	if !ok {
		c.println(fmt.Sprintf("Unknown command %q. Type help for commands.", res.Command))
		return false
	}
	if len(res.Args) < cmd.MinArgs {
		c.println("Usage: " + cmd.Usage)
		return false
	}

	switch cmd.Handler {
	case command.HandlerAttack:
		c.act(action.KindAttack, res.Args)
	case command.HandlerCast:
		c.act(action.KindSpell, res.Args)
	case command.HandlerTarget:
		c.target(res.Args)
	case command.HandlerMove:
		pos, _, err := command.ParseCell(res.Args)
		if err == nil {
			err = c.enc.Move(pos)
		}
		c.report(err)
	case command.HandlerMode:
		mode, err := c.enc.ToggleMovementMode()
		if err == nil {
			c.println(fmt.Sprintf("Mode: %s", mode))
		}
		c.report(err)
	case command.HandlerCancel:
		c.report(c.enc.CancelAction())
	case command.HandlerEnd:
		c.report(c.enc.EndTurn())
	case command.HandlerAuto:
		c.auto()
	case command.HandlerStatus:
		fmt.Fprint(c.out, c.pal.RenderStatus(c.enc.Snapshot(), c.enc.ControlledID()))
	case command.HandlerMap:
		fmt.Fprint(c.out, c.pal.RenderMap(c.enc.Snapshot()))
	case command.HandlerHelp:
		fmt.Fprint(c.out, c.pal.RenderHelp(c.cmds))
	case command.HandlerQuit:
		c.println("You withdraw from the fight.")
		return true
	}
	return false
}

// act arms an action and feeds it the given targets. A target list that
// fails part-way cancels the action.
func (c *Console) act(kind action.Kind, args []string) {
	s := c.enc.Snapshot()
	me := findCombatant(s, c.enc.ControlledID())
	if me == nil {
		return
	}
	act, known := me.Action(args[0])
	if known && act.Kind != kind {
		verb := "attack"
		if act.Kind == action.KindSpell {
			verb = "cast"
		}
		c.println(fmt.Sprintf("%s is used with %q.", act.Name, verb))
		return
	}
	if err := c.enc.SelectAction(args[0]); err != nil {
		c.report(err)
		return
	}
	if act.AreaOfEffect {
		pos, _, err := command.ParseCell(args[1:])
		if err == nil {
			err = c.enc.SelectCell(pos)
		}
		if err != nil {
			c.report(err)
			c.report(c.enc.CancelAction())
		}
		return
	}
	tokens := args[1:]
	if len(tokens) > act.TargetCount() {
		tokens = tokens[:act.TargetCount()]
	}
	c.addTargets(s, tokens, true)
}

func (c *Console) target(args []string) {
	c.addTargets(c.enc.Snapshot(), args, false)
}

func (c *Console) addTargets(s encounter.State, tokens []string, cancelOnError bool) {
	for _, tok := range tokens {
		var err error
		if command.IsCell(tok) {
			pos, _, _ := command.ParseCell([]string{tok})
			err = c.enc.SelectCell(pos)
		} else {
			err = c.enc.SelectTarget(resolveTarget(s, tok))
		}
		if err != nil {
			c.report(err)
			if cancelOnError {
				c.report(c.enc.CancelAction())
			}
			return
		}
	}
	after := c.enc.Snapshot()
	if after.PendingAction != "" && !after.Resolving {
		c.println(fmt.Sprintf("%s: %d target(s) chosen; add more with target <id>.", after.PendingAction, len(after.Targets)))
	}
}

// resolveTarget accepts a combatant id or a unique case-insensitive name.
func resolveTarget(s encounter.State, tok string) string {
	var match string
	for _, c := range s.Combatants {
		if c.ID == tok {
			return tok
		}
		if strings.EqualFold(c.Name, tok) && !c.IsDead() {
			if match != "" {
				return tok
			}
			match = c.ID
		}
	}
	if match == "" {
		return tok
	}
	return match
}

// auto plays the rest of the controlled actor's turn with the tactician
// through the ordinary intents, then ends the turn.
func (c *Console) auto() {
	key, ok := c.enc.CurrentTurnKey()
	if !ok {
		c.report(combat.ErrWrongPhase)
		return
	}
	d, err := c.enc.Suggest(c.tactician)
	if err != nil {
		c.report(err)
		return
	}
	if d.Pass() {
		c.println("The tactician finds nothing useful to do.")
	}
	if d.Move != nil {
		if err := c.enc.Move(*d.Move); err != nil {
			c.report(err)
		}
	}
	if d.ActionID != "" {
		if err := c.enc.SelectAction(d.ActionID); err != nil {
			c.report(err)
		} else if d.Selection.Origin != nil {
			c.report(c.enc.SelectCell(*d.Selection.Origin))
		} else {
			for _, id := range d.Selection.Targets {
				if err := c.enc.SelectTarget(id); err != nil {
					c.report(err)
					break
				}
			}
		}
	}

	now, ok := c.enc.CurrentTurnKey()
	if !ok || now != key || c.enc.Phase() != encounter.PhasePlayerTurn {
		return
	}
	if c.enc.Snapshot().Resolving {
		c.endAfter = &key
		return
	}
	c.report(c.enc.EndTurn())
}

// report prints a player-facing explanation of err.
func (c *Console) report(err error) {
	if err == nil {
		return
	}
	var msg string
	switch {
	case errors.Is(err, combat.ErrWrongPhase):
		msg = "It is not your turn to act."
	case errors.Is(err, combat.ErrActionSpent):
		msg = "You cannot take another action this turn."
	case errors.Is(err, combat.ErrMovementSpent):
		msg = "You cannot move again this turn."
	case errors.Is(err, combat.ErrNoPendingAction):
		msg = "Choose an action first."
	default:
		msg = err.Error()
	}
	c.logger.Debug("intent rejected", zap.Error(err))
	c.println(c.pal.Colorize(Red, msg))
}
