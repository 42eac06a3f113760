package domain

import "testing"

func TestStatesOnlyAdvanceForward(t *testing.T) {
	ordered := []State{StateIdle, StateRinging, StateConnected, StateEnded, StateDispositioned}

	for i, from := range ordered {
		for j, to := range ordered {
			got := from.CanAdvance(to)
			want := j > i
			if got != want {
				t.Fatalf("transition %s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestDuplicateTerminalSignalIsRejected(t *testing.T) {
	if StateEnded.CanAdvance(StateEnded) {
		t.Fatal("ended -> ended must not be a valid transition")
	}
	if StateEnded.CanAdvance(StateConnected) {
		t.Fatal("ended -> connected must not be a valid transition")
	}
}

func TestUnknownStateRanksLowest(t *testing.T) {
	unknown := State("mystery")
	if !unknown.CanAdvance(StateRinging) {
		t.Fatal("unknown states should rank below ringing")
	}
	if StateRinging.CanAdvance(unknown) {
		t.Fatal("no state should advance into an unknown state")
	}
}
