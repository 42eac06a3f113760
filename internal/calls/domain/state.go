// Package domain holds the call record model and its lifecycle state machine.
package domain

// State is a call's lifecycle stage. Transitions only move forward; signals
// that would move a call backwards are ignored as duplicates or stragglers.
type State string

const (
	StateIdle          State = "idle"
	StateRinging       State = "ringing"
	StateConnected     State = "connected"
	StateEnded         State = "ended"
	StateDispositioned State = "dispositioned"
)

var stateRank = map[State]int{
	StateIdle:          0,
	StateRinging:       1,
	StateConnected:     2,
	StateEnded:         3,
	StateDispositioned: 4,
}

// Rank returns the monotonic position of a state; unknown states rank lowest.
func (s State) Rank() int {
	return stateRank[s]
}

// CanAdvance reports whether a transition from s to next is allowed.
// Equal-rank transitions are rejected too: a duplicate terminal signal is a
// no-op, not an error.
func (s State) CanAdvance(next State) bool {
	return next.Rank() > s.Rank()
}
