package orchestration

import "testing"

func TestNewTurnStartsListening(t *testing.T) {
	turn := newTurnState()
	if turn.Phase() != PhaseListening {
		t.Fatalf("expected new turn to be listening, got %s", turn.Phase())
	}
	if turn.ID() == "" {
		t.Fatalf("expected a turn id")
	}
	if turn.Interrupted() {
		t.Fatalf("expected a fresh turn to not be interrupted")
	}
}

func TestTurnTransitions(t *testing.T) {
	cases := []struct {
		from    TurnPhase
		to      TurnPhase
		allowed bool
	}{
		{PhaseListening, PhaseTranscribing, true},
		{PhaseListening, PhaseAborted, true},
		{PhaseListening, PhaseReasoning, false},
		{PhaseTranscribing, PhaseReasoning, true},
		{PhaseTranscribing, PhaseListening, true},
		{PhaseTranscribing, PhaseResponding, false},
		{PhaseReasoning, PhaseToolDispatch, true},
		{PhaseReasoning, PhaseResponding, true},
		{PhaseReasoning, PhaseListening, false},
		{PhaseToolDispatch, PhaseReasoning, true},
		{PhaseToolDispatch, PhaseResponding, false},
		{PhaseResponding, PhaseIdle, true},
		{PhaseResponding, PhaseListening, true},
		{PhaseResponding, PhaseReasoning, false},
		{PhaseAborted, PhaseIdle, true},
		{PhaseAborted, PhaseListening, false},
		{PhaseIdle, PhaseListening, true},
		{PhaseIdle, PhaseResponding, false},
	}

	for _, c := range cases {
		turn := &TurnState{phase: c.from}
		err := turn.transition(c.to)
		if c.allowed && err != nil {
			t.Errorf("expected %s -> %s to be allowed, got %v", c.from, c.to, err)
		}
		if !c.allowed && err == nil {
			t.Errorf("expected %s -> %s to be rejected", c.from, c.to)
		}
		if !c.allowed && turn.Phase() != c.from {
			t.Errorf("rejected transition mutated phase: %s", turn.Phase())
		}
	}
}

func TestAbortedReachableFromEveryActivePhase(t *testing.T) {
	for _, from := range []TurnPhase{PhaseListening, PhaseTranscribing, PhaseReasoning, PhaseToolDispatch, PhaseResponding} {
		turn := &TurnState{phase: from}
		if err := turn.transition(PhaseAborted); err != nil {
			t.Errorf("expected %s -> aborted to be allowed, got %v", from, err)
		}
	}
}
