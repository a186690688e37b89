package events

const (
	// KindAssistantResponseSegment identifies a streamed response text segment.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies the end of the response text stream.
	KindAssistantResponseFinal Kind = "assistant_response.final"
	// KindAssistantResponseFallback identifies a canned response substituted
	// after a fault.
	KindAssistantResponseFallback Kind = "assistant_response.fallback"
)

// AssistantResponseSegment carries a streamed response text segment.
type AssistantResponseSegment struct {
	Base
	Text string
}

// NewAssistantResponseSegment creates an assistant response segment event.
func NewAssistantResponseSegment(text string) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), Text: text}
}

// AssistantResponseFinal carries the complete response text.
type AssistantResponseFinal struct {
	Base
	Text string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(text string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Text: text}
}

// AssistantResponseFallback carries a canned response substituted after a
// fault in generation or synthesis.
type AssistantResponseFallback struct {
	Base
	Text string
}

// NewAssistantResponseFallback creates an assistant response fallback event.
func NewAssistantResponseFallback(text string) AssistantResponseFallback {
	return AssistantResponseFallback{Base: NewBase(KindAssistantResponseFallback), Text: text}
}
