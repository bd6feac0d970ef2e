package combat

import "errors"

// Sentinel errors surfaced by the engine. Callers test them with errors.Is.
var (
	// ErrInvalidEncounterDefinition is fatal to encounter creation.
	ErrInvalidEncounterDefinition = errors.New("invalid encounter definition")
	// ErrUnknownHostileType marks a hostile group whose template is missing; the group is skipped.
	ErrUnknownHostileType = errors.New("unknown hostile type")
	// ErrNoLegalTarget rejects an action selection without consuming anything.
	ErrNoLegalTarget = errors.New("no legal target")
	// ErrNoSlotAvailable rejects a cast before any effect occurs.
	ErrNoSlotAvailable = errors.New("no spell slot available")
	// ErrMissingEntityForTurn is reported when a turn entry names an unknown combatant.
	ErrMissingEntityForTurn = errors.New("missing entity for turn")
	ErrEmptyTurnOrder       = errors.New("turn order is empty")
	ErrWrongPhase           = errors.New("intent not allowed in current phase")
	ErrActionSpent          = errors.New("action already used this turn")
	ErrMovementSpent        = errors.New("movement already used this turn")
	ErrIllegalMove          = errors.New("illegal move")
	ErrNoPendingAction      = errors.New("no pending action")
	ErrUnknownAction        = errors.New("unknown action")
	ErrActorDead            = errors.New("actor is dead")
)
