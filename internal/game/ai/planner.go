package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// ScriptCaller evaluates Lua preconditions. *scripting.Manager satisfies it.
type ScriptCaller interface {
	// CallHook calls a named Lua function in scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
	// Bind exposes view to scripts until release is called.
	Bind(view scripting.CombatView) (release func())
}

// PlannedAction is one primitive step produced by the planner.
type PlannedAction struct {
	Action string // attack | cast | approach | pass
	Target string // resolved combatant id; empty for pass
	Use    string // action id; empty lets the decider pick
}

// Planner evaluates an HTN domain for a single combatant.
//
// Invariant: domain and caller must not be nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
}

// NewPlanner constructs a Planner. Preconditions run in the scripting scope
// named after the domain.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes the root task against state.
//
// Precondition: state and state.Self must not be nil.
// Postcondition: returns a non-nil slice (may be empty); Lua failures are
// treated as precondition-false, never as errors.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Self == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: state and state.Self must not be nil")
	}

	release := p.caller.Bind(scriptView{ws: state})
	defer release()

	taskQueue := []string{RootTask}
	result := []PlannedAction{}

	const maxDepth = 32
	steps := 0

	for len(taskQueue) > 0 && steps < maxDepth {
		steps++
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			result = append(result, PlannedAction{
				Action: op.Action,
				Target: state.ResolveTarget(op.Target),
				Use:    op.Use,
			})
			continue
		}

		method := p.findApplicableMethod(current, state)
		if method == nil {
			continue
		}
		taskQueue = append(append([]string(nil), method.Subtasks...), taskQueue...)
	}
	return result, nil
}

// findApplicableMethod returns the first Method for taskID whose precondition passes,
// or nil if none applies.
func (p *Planner) findApplicableMethod(taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" {
			return m
		}
		val, _ := p.caller.CallHook(p.domain.ID, m.Precondition, lua.LString(state.Self.ID))
		if val == lua.LTrue {
			return m
		}
	}
	return nil
}

// Registry indexes Planners by domain ID.
//
// Invariant: each domain ID is registered at most once.
type Registry struct {
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{planners: make(map[string]*Planner)}
}

// Register creates and stores a Planner for domain.
//
// Precondition: domain and caller must not be nil.
// Postcondition: returns error on domain ID collision.
func (r *Registry) Register(domain *Domain, caller ScriptCaller) error {
	if _, exists := r.planners[domain.ID]; exists {
		return fmt.Errorf("ai.Registry: domain %q already registered", domain.ID)
	}
	r.planners[domain.ID] = NewPlanner(domain, caller)
	return nil
}

// PlannerFor returns the Planner for domainID, or false if not registered.
func (r *Registry) PlannerFor(domainID string) (*Planner, bool) {
	p, ok := r.planners[domainID]
	return p, ok
}

// HTNDecider plans turns for combatants with an AI domain and defers to
// Fallback for everyone else, or whenever the plan yields nothing usable.
type HTNDecider struct {
	planners *Registry
	fallback Decider
	logger   *zap.Logger
}

// NewHTNDecider creates an HTNDecider.
//
// Precondition: planners, fallback and logger must be non-nil.
func NewHTNDecider(planners *Registry, fallback Decider, logger *zap.Logger) *HTNDecider {
	return &HTNDecider{planners: planners, fallback: fallback, logger: logger}
}

// Decide implements Decider.
func (h *HTNDecider) Decide(view combat.View, actorID string, round, allowance int) Decision {
	actor, ok := view.Get(actorID)
	if !ok || actor.IsDead() {
		return Decision{}
	}
	if actor.AIDomain == "" {
		return h.fallback.Decide(view, actorID, round, allowance)
	}
	planner, ok := h.planners.PlannerFor(actor.AIDomain)
	if !ok {
		h.logger.Warn("no planner for ai domain; using heuristic",
			zap.String("combatant", actorID),
			zap.String("domain", actor.AIDomain),
		)
		return h.fallback.Decide(view, actorID, round, allowance)
	}

	ws := BuildWorldState(view.Living(), actorID, round)
	plan, err := planner.Plan(ws)
	if err != nil {
		h.logger.Warn("planning failed", zap.String("combatant", actorID), zap.Error(err))
		return h.fallback.Decide(view, actorID, round, allowance)
	}
	for _, step := range plan {
		if d, ok := h.realize(view, actor, step, allowance); ok {
			h.logger.Debug("htn step chosen",
				zap.String("combatant", actorID),
				zap.String("action", step.Action),
				zap.String("target", step.Target),
				zap.String("use", step.Use),
			)
			return d
		}
	}
	return h.fallback.Decide(view, actorID, round, allowance)
}

// realize turns one planned step into a Decision, reporting false when the
// step cannot be carried out this turn.
func (h *HTNDecider) realize(view combat.View, actor *combat.Combatant, step PlannedAction, allowance int) (Decision, bool) {
	if step.Action == OpPass {
		return Decision{}, true
	}
	target, ok := view.Get(step.Target)
	if !ok || target.IsDead() {
		return Decision{}, false
	}
	switch step.Action {
	case OpApproach:
		if pos, ok := stepToward(view, actor, target.Position, allowance); ok {
			return Decision{Move: &pos}, true
		}
		return Decision{}, false
	case OpCast:
		act, ok := actor.Action(step.Use)
		if !ok || !affordable(actor, act) {
			return Decision{}, false
		}
		if act.Beneficial() {
			if !condition.IsRestricted(actor.Conditions, "action") && combat.CanTarget(actor, target, act) {
				return Decision{ActionID: act.ID, Selection: combat.Selection{Targets: []string{target.ID}}}, true
			}
			return Decision{}, false
		}
	}
	prefer := func(a action.Action) bool { return step.Use == "" || a.ID == step.Use }
	d := approachAndAct(view, actor, target, allowance, prefer)
	return d, d.ActionID != ""
}
