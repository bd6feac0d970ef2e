package encounter

// Phase is the encounter's position in its state machine.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseInitiativeDisplay
	PhasePlayerTurn
	PhaseExecutingTurn
	PhaseVictory
	PhaseDefeat
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseInitiativeDisplay:
		return "initiative-display"
	case PhasePlayerTurn:
		return "player-turn"
	case PhaseExecutingTurn:
		return "executing-turn"
	case PhaseVictory:
		return "victory"
	case PhaseDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further intents are accepted.
func (p Phase) Terminal() bool { return p == PhaseVictory || p == PhaseDefeat }

// Mode is the controlled actor's interaction mode during a player turn.
// Action and movement modes are mutually exclusive.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAction
	ModeMovement
)

func (m Mode) String() string {
	switch m {
	case ModeAction:
		return "action"
	case ModeMovement:
		return "movement"
	default:
		return "idle"
	}
}

// TurnKey identifies one turn occurrence. Continuations carry the key they
// were scheduled for and are ignored once it is no longer current.
type TurnKey struct {
	Generation  uint64
	Round       int
	Index       int
	CombatantID string
}
