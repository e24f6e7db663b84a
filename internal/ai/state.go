package ai

// State is an AI decision state. Stored atomically in the state machine so
// other goroutines (inspect endpoints) can read it without locking.
type State int32

const (
	// StateIdle - no target, scanning for one
	StateIdle State = iota
	// StateChase - closing distance to the current target
	StateChase
	// StateCombat - within attack range, executing attacks
	StateCombat
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateChase:
		return "CHASE"
	case StateCombat:
		return "COMBAT"
	default:
		return "UNKNOWN"
	}
}
