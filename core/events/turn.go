package events

import "time"

const (
	// KindTurnStarted identifies the start of a new turn.
	KindTurnStarted Kind = "turn.started"
	// KindTurnPhaseChanged identifies a turn phase transition.
	KindTurnPhaseChanged Kind = "turn.phase_changed"
	// KindTurnCompleted identifies a turn that ran to completion.
	KindTurnCompleted Kind = "turn.completed"
	// KindTurnFailed identifies a turn aborted by a fault.
	KindTurnFailed Kind = "turn.failed"
	// KindTurnInterrupted identifies a turn cut short by the user.
	KindTurnInterrupted Kind = "turn.interrupted"
)

// TurnStarted marks the beginning of a turn.
type TurnStarted struct {
	Base
	TurnID string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(turnID string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), TurnID: turnID}
}

// TurnPhaseChanged marks a transition between turn phases.
type TurnPhaseChanged struct {
	Base
	TurnID string
	From   string
	To     string
}

// NewTurnPhaseChanged creates a turn phase changed event.
func NewTurnPhaseChanged(turnID, from, to string) TurnPhaseChanged {
	return TurnPhaseChanged{Base: NewBase(KindTurnPhaseChanged), TurnID: turnID, From: from, To: to}
}

// TurnCompleted marks a turn that ran to completion.
type TurnCompleted struct {
	Base
	TurnID   string
	Duration time.Duration
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted(turnID string, duration time.Duration) TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted), TurnID: turnID, Duration: duration}
}

// TurnFailed marks a turn aborted by a fault. Class names the failing stage,
// e.g. "transcription", "reasoning" or "synthesis".
type TurnFailed struct {
	Base
	TurnID   string
	Class    string
	Reason   string
	Duration time.Duration
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(turnID, class, reason string, duration time.Duration) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), TurnID: turnID, Class: class, Reason: reason, Duration: duration}
}

// TurnInterrupted marks a turn cut short by user speech.
type TurnInterrupted struct {
	Base
	TurnID string
}

// NewTurnInterrupted creates a turn interrupted event.
func NewTurnInterrupted(turnID string) TurnInterrupted {
	return TurnInterrupted{Base: NewBase(KindTurnInterrupted), TurnID: turnID}
}
