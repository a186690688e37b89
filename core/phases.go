package orchestration

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TurnPhase is a phase of the turn state machine.
type TurnPhase string

const (
	PhaseIdle         TurnPhase = "idle"
	PhaseListening    TurnPhase = "listening"
	PhaseTranscribing TurnPhase = "transcribing"
	PhaseReasoning    TurnPhase = "reasoning"
	PhaseToolDispatch TurnPhase = "tool_dispatch"
	PhaseResponding   TurnPhase = "responding"
	PhaseAborted      TurnPhase = "aborted"
)

// allowedTransitions is the turn state machine. Transcribing may fall back to
// listening when new speech supersedes a finalized utterance, and responding
// may fall back to listening on barge-in. Aborted is reachable from any
// non-idle phase and only ever returns to idle.
var allowedTransitions = map[TurnPhase][]TurnPhase{
	PhaseIdle:         {PhaseListening},
	PhaseListening:    {PhaseTranscribing, PhaseAborted},
	PhaseTranscribing: {PhaseReasoning, PhaseListening, PhaseAborted},
	PhaseReasoning:    {PhaseToolDispatch, PhaseResponding, PhaseAborted},
	PhaseToolDispatch: {PhaseReasoning, PhaseAborted},
	PhaseResponding:   {PhaseIdle, PhaseListening, PhaseAborted},
	PhaseAborted:      {PhaseIdle},
}

// TurnState is the orchestrator's mutable record for one in-flight turn.
// Transitions are serialized; the orchestrator's run loop is the only writer.
type TurnState struct {
	mu sync.Mutex

	id        string
	phase     TurnPhase
	startedAt time.Time

	interrupted bool
}

func newTurnState() *TurnState {
	return &TurnState{
		id:        uuid.NewString(),
		phase:     PhaseListening,
		startedAt: time.Now(),
	}
}

func (t *TurnState) ID() string {
	return t.id
}

func (t *TurnState) Phase() TurnPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *TurnState) StartedAt() time.Time {
	return t.startedAt
}

func (t *TurnState) Interrupted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interrupted
}

func (t *TurnState) markInterrupted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interrupted = true
}

// transition moves the turn to the given phase, failing on transitions the
// state machine does not allow.
func (t *TurnState) transition(to TurnPhase) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !slices.Contains(allowedTransitions[t.phase], to) {
		return fmt.Errorf("invalid turn transition %s -> %s", t.phase, to)
	}
	t.phase = to
	return nil
}
