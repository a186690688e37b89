package events

const (
	// KindAssistantPlaybackStarted identifies the start of audible output.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantPlaybackCancelled identifies playback cut off before
	// completion.
	KindAssistantPlaybackCancelled Kind = "assistant_playback.cancelled"
	// KindAssistantPlaybackEnded identifies all queued audio finishing.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
)

// AssistantPlaybackStarted marks the start of audible output for a turn.
type AssistantPlaybackStarted struct {
	Base
	TurnID string
}

// NewAssistantPlaybackStarted creates a playback started event.
func NewAssistantPlaybackStarted(turnID string) AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted), TurnID: turnID}
}

// AssistantPlaybackCancelled marks playback cut off before completion.
// SpokenText is the prefix that was audible before the cutoff.
type AssistantPlaybackCancelled struct {
	Base
	TurnID     string
	SpokenText string
}

// NewAssistantPlaybackCancelled creates a playback cancelled event.
func NewAssistantPlaybackCancelled(turnID, spokenText string) AssistantPlaybackCancelled {
	return AssistantPlaybackCancelled{Base: NewBase(KindAssistantPlaybackCancelled), TurnID: turnID, SpokenText: spokenText}
}

// AssistantPlaybackEnded marks all queued audio finishing.
type AssistantPlaybackEnded struct {
	Base
	TurnID string
}

// NewAssistantPlaybackEnded creates a playback ended event.
func NewAssistantPlaybackEnded(turnID string) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded), TurnID: turnID}
}
