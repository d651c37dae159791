package sandbox

import "fmt"

// State is the lifecycle of a sandbox run.
type State int

const (
	Idle State = iota
	Running
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether the state ends a run.
func IsTerminal(s State) bool {
	switch s {
	case Completed, Failed, Cancelled:
		return true
	default:
		return false
	}
}

// Transition validates a state change and returns the new state.
func Transition(from, to State) (State, error) {
	if !isAllowedTransition(from, to) {
		return from, fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	return to, nil
}

func isAllowedTransition(from, to State) bool {
	switch {
	case from == Idle, IsTerminal(from):
		return to == Running
	case from == Running:
		return IsTerminal(to)
	default:
		return false
	}
}
