package events

import (
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "turn started", event: NewTurnStarted("t1"), expected: KindTurnStarted},
		{name: "turn phase changed", event: NewTurnPhaseChanged("t1", "listening", "transcribing"), expected: KindTurnPhaseChanged},
		{name: "turn completed", event: NewTurnCompleted("t1", time.Second), expected: KindTurnCompleted},
		{name: "turn failed", event: NewTurnFailed("t1", "reasoning", "boom", time.Second), expected: KindTurnFailed},
		{name: "turn interrupted", event: NewTurnInterrupted("t1"), expected: KindTurnInterrupted},
		{name: "user speech started", event: NewUserSpeechStarted(), expected: KindUserSpeechStarted},
		{name: "user speech ended", event: NewUserSpeechEnded(), expected: KindUserSpeechEnded},
		{name: "user transcript updated", event: NewUserTranscriptUpdated("text"), expected: KindUserTranscriptUpdated},
		{name: "user utterance final", event: NewUserUtteranceFinal("text", 0.9), expected: KindUserUtteranceFinal},
		{name: "assistant response segment", event: NewAssistantResponseSegment("seg"), expected: KindAssistantResponseSegment},
		{name: "assistant response final", event: NewAssistantResponseFinal("text"), expected: KindAssistantResponseFinal},
		{name: "assistant response fallback", event: NewAssistantResponseFallback("text"), expected: KindAssistantResponseFallback},
		{name: "tool call started", event: NewToolCallStarted("id", "name", "{}"), expected: KindToolCallStarted},
		{name: "tool call completed", event: NewToolCallCompleted("id", "name", "ok"), expected: KindToolCallCompleted},
		{name: "tool call failed", event: NewToolCallFailed("id", "name", "err"), expected: KindToolCallFailed},
		{name: "assistant playback started", event: NewAssistantPlaybackStarted("t1"), expected: KindAssistantPlaybackStarted},
		{name: "assistant playback cancelled", event: NewAssistantPlaybackCancelled("t1", "spoken"), expected: KindAssistantPlaybackCancelled},
		{name: "assistant playback ended", event: NewAssistantPlaybackEnded("t1"), expected: KindAssistantPlaybackEnded},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected non-zero timestamp for %q", testCase.expected)
			}
		})
	}
}

func TestInterruptedAndFailedKindsAreDistinct(t *testing.T) {
	interrupted := NewTurnInterrupted("t1")
	failed := NewTurnFailed("t1", "transcription", "stream closed", 0)

	if interrupted.Kind() == failed.Kind() {
		t.Fatalf("expected interrupted and failed kinds to differ, both were %q", interrupted.Kind())
	}
}
