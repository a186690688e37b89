package orchestration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/overtone-ai/overtone-core/core/events"
	"github.com/overtone-ai/overtone-core/core/llms"
	"github.com/overtone-ai/overtone-core/core/speechtotext"
	"github.com/overtone-ai/overtone-core/core/tools"
)

type sessionFixture struct {
	o        *Orchestrator
	input    *fakeAudioInput
	stt      *fakeSTT
	tts      *fakeTTS
	output   *fakeAudioOutput
	llm      *scriptedLLM
	recorder *eventRecorder
}

func testPolicy() TurnPolicy {
	return TurnPolicy{
		SilenceDebounce:         20 * time.Millisecond,
		BargeInConfirmation:     50 * time.Millisecond,
		SpeechStartConfirmation: 10 * time.Millisecond,
		ReasonerRetryDelay:      time.Millisecond,
	}
}

func startSession(t *testing.T, llmClient *scriptedLLM, extra ...OrchestratorOption) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		input:    newFakeAudioInput(),
		stt:      &fakeSTT{},
		tts:      &fakeTTS{},
		output:   &fakeAudioOutput{},
		llm:      llmClient,
		recorder: &eventRecorder{},
	}

	opts := []OrchestratorOption{
		WithAudioInput(f.input),
		WithAudioOutput(f.output),
		WithSpeechToTextClient(f.stt),
		WithTextToSpeechClient(f.tts),
		WithStreamingLLM(f.llm),
		WithEventCallback(f.recorder.record),
		WithTurnPolicy(testPolicy()),
	}
	opts = append(opts, extra...)
	f.o = New(opts...)

	go func() { _ = f.o.Run(context.Background()) }()
	t.Cleanup(func() { _ = f.o.Close() })

	waitUntil(t, "audio output started", func() bool {
		f.output.mu.Lock()
		defer f.output.mu.Unlock()
		return f.output.started
	})
	return f
}

// speak pushes a capture chunk long enough to confirm speech in idle and
// waits for the turn's transcription stream to open.
func (f *sessionFixture) speak(t *testing.T, expectStreams int) {
	t.Helper()
	f.input.chunks <- speechChunk(50 * time.Millisecond)
	waitUntil(t, "transcription stream opened", func() bool {
		return f.stt.startCount() >= expectStreams
	})
}

func TestOrchestratorRunsFullTurn(t *testing.T) {
	registry := tools.NewRegistry()
	err := tools.Register(registry, "play_music", "Start music playback.",
		func(context.Context, playMusicArgs) (string, error) {
			return `{"status":"playing"}`, nil
		})
	if err != nil {
		t.Fatalf("failed to register tool: %v", err)
	}

	llmClient := &scriptedLLM{streams: []fakeStream{
		{toolCalls: []llms.ToolCall{{ID: "call-1", Name: "play_music", Arguments: `{"genre":"jazz"}`}}},
		{content: "Playing some jazz for you."},
	}}
	f := startSession(t, llmClient, WithToolRegistry(registry))

	f.speak(t, 1)
	f.recorder.waitFor(t, events.KindTurnStarted)
	f.recorder.waitFor(t, events.KindUserSpeechStarted)

	f.stt.emit(speechtotext.Event{Text: "play some jazz", Start: 0, End: time.Second})
	f.recorder.waitFor(t, events.KindUserTranscriptUpdated)

	f.stt.emit(speechtotext.Event{IsFinal: true, Confidence: 0.9, Start: time.Second, End: time.Second})
	f.recorder.waitFor(t, events.KindUserSpeechEnded)

	utterance := f.recorder.waitFor(t, events.KindUserUtteranceFinal)
	if got := utterance.(events.UserUtteranceFinal).Text; got != "play some jazz" {
		t.Fatalf("expected finalized utterance, got %q", got)
	}

	f.recorder.waitFor(t, events.KindToolCallCompleted)
	f.recorder.waitFor(t, events.KindAssistantPlaybackStarted)
	f.recorder.waitFor(t, events.KindAssistantPlaybackEnded)
	f.recorder.waitFor(t, events.KindTurnCompleted)

	waitUntil(t, "orchestrator returns to idle", func() bool {
		return f.o.Phase() == PhaseIdle
	})

	history := f.o.History()
	if len(history) != 3 {
		t.Fatalf("expected user, tool-call and response entries, got %d", len(history))
	}
	if history[0].Role != llms.RoleUser || history[0].Content != "play some jazz" {
		t.Fatalf("unexpected user entry: %+v", history[0])
	}
	if len(history[1].ToolCalls) != 1 || history[1].ToolCalls[0].Response != `{"status":"playing"}` {
		t.Fatalf("unexpected tool-call entry: %+v", history[1])
	}
	if history[2].Content != "Playing some jazz for you." || history[2].Truncated {
		t.Fatalf("unexpected response entry: %+v", history[2])
	}

	if f.recorder.count(events.KindTurnStarted) != 1 {
		t.Fatalf("expected exactly one turn")
	}
}

func TestOrchestratorBargeIn(t *testing.T) {
	llmClient := &scriptedLLM{streams: []fakeStream{
		{content: "Here is a long answer you will not want to sit through."},
		{content: "Sure, stopping."},
	}}
	f := startSession(t, llmClient)

	// Hold playback marks so the first response stays audibly in flight.
	f.output.setHoldMarks(true)

	f.speak(t, 1)
	f.stt.emit(speechtotext.Event{Text: "tell me everything", Start: 0, End: time.Second})
	f.stt.emit(speechtotext.Event{IsFinal: true, Confidence: 0.9, Start: time.Second, End: time.Second})
	f.recorder.waitFor(t, events.KindAssistantPlaybackStarted)

	chunksBefore := f.output.chunkCount()

	// Sustained speech during playback confirms a barge-in.
	f.input.chunks <- speechChunk(100 * time.Millisecond)
	f.recorder.waitFor(t, events.KindTurnInterrupted)
	f.recorder.waitFor(t, events.KindAssistantPlaybackCancelled)

	// Playback must be cleared and the generator cancelled before any new
	// response audio.
	waitUntil(t, "playback buffer cleared", func() bool {
		return f.output.clearCount() >= 1
	})
	waitUntil(t, "first generator cancelled", func() bool {
		generator := f.tts.generator(0)
		return generator != nil && generator.wasCancelled()
	})
	if f.output.chunkCount() != chunksBefore {
		t.Fatalf("expected no new response audio before the cancel")
	}

	// The interrupted turn's response lands in history marked truncated.
	waitUntil(t, "truncated entry recorded", func() bool {
		history := f.o.History()
		return len(history) == 2 && history[1].Truncated
	})

	// A new turn is already listening.
	waitUntil(t, "second transcription stream opened", func() bool {
		return f.stt.startCount() == 2
	})
	if f.recorder.count(events.KindTurnStarted) != 2 {
		t.Fatalf("expected the barge-in to start a second turn")
	}

	// The second turn runs to completion once playback marks flow again.
	f.output.setHoldMarks(false)
	f.stt.emit(speechtotext.Event{Text: "stop", Start: 0, End: time.Second})
	f.stt.emit(speechtotext.Event{IsFinal: true, Confidence: 0.95, Start: time.Second, End: time.Second})
	f.recorder.waitFor(t, events.KindTurnCompleted)

	waitUntil(t, "orchestrator returns to idle", func() bool {
		return f.o.Phase() == PhaseIdle
	})

	history := f.o.History()
	if len(history) != 4 {
		t.Fatalf("expected both turns in history, got %d entries", len(history))
	}
	if history[3].Content != "Sure, stopping." || history[3].Truncated {
		t.Fatalf("unexpected second response entry: %+v", history[3])
	}
}

func TestOrchestratorTranscriptionFaultAbortsTurn(t *testing.T) {
	llmClient := &scriptedLLM{streams: []fakeStream{{content: "unused"}}}
	f := startSession(t, llmClient)

	f.speak(t, 1)
	f.stt.emit(speechtotext.Event{Text: "play", Start: 0, End: time.Second})
	f.recorder.waitFor(t, events.KindUserTranscriptUpdated)

	f.stt.fail(errors.New("websocket torn down"))

	failed := f.recorder.waitFor(t, events.KindTurnFailed)
	if failed.(events.TurnFailed).Class != "transcription" {
		t.Fatalf("expected a transcription failure, got %+v", failed)
	}
	f.recorder.waitFor(t, events.KindAssistantResponseFallback)

	waitUntil(t, "orchestrator returns to idle", func() bool {
		return f.o.Phase() == PhaseIdle
	})

	if f.recorder.count(events.KindToolCallStarted) != 0 {
		t.Fatalf("expected no tool dispatch on an aborted turn")
	}
	if llmClient.callCount() != 0 {
		t.Fatalf("expected no reasoning on an aborted turn")
	}

	// The abort leaves a note so the next turn's reasoner sees what happened.
	waitUntil(t, "abort note recorded", func() bool {
		history := f.o.History()
		return len(history) == 1 && history[0].Role == llms.RoleSystem
	})
}

func TestOrchestratorTranscriptionOpenFailureAbortsTurn(t *testing.T) {
	llmClient := &scriptedLLM{streams: []fakeStream{{content: "unused"}}}
	f := startSession(t, llmClient)
	f.stt.startErr = errors.New("dial refused")

	f.input.chunks <- speechChunk(50 * time.Millisecond)

	failed := f.recorder.waitFor(t, events.KindTurnFailed)
	if failed.(events.TurnFailed).Class != "transcription" {
		t.Fatalf("expected a transcription failure, got %+v", failed)
	}
	waitUntil(t, "orchestrator returns to idle", func() bool {
		return f.o.Phase() == PhaseIdle
	})
}

func TestOrchestratorSupersedesTalkedThroughFinalization(t *testing.T) {
	llmClient := &scriptedLLM{streams: []fakeStream{{content: "Understood."}}}
	f := startSession(t, llmClient)

	f.speak(t, 1)
	f.stt.emit(speechtotext.Event{Text: "play", Start: 0, End: time.Second})
	f.recorder.waitFor(t, events.KindUserTranscriptUpdated)

	// The user keeps talking past the confirmation window, then a stale
	// finalization arrives: the finalization must lose.
	f.input.chunks <- speechChunk(100 * time.Millisecond)
	waitUntil(t, "speech frame processed", func() bool {
		f.stt.mu.Lock()
		defer f.stt.mu.Unlock()
		return f.stt.pushed >= 1
	})
	f.stt.emit(speechtotext.Event{IsFinal: true, Confidence: 0.5, Start: time.Second, End: time.Second})

	time.Sleep(100 * time.Millisecond)
	if f.recorder.count(events.KindUserUtteranceFinal) != 0 {
		t.Fatalf("expected the stale finalization to be superseded")
	}
	if f.o.Phase() != PhaseTranscribing {
		t.Fatalf("expected the turn to keep transcribing, got %s", f.o.Phase())
	}

	// Silence ends the run; the next finalization wins.
	f.input.chunks <- silenceChunk(40 * time.Millisecond)
	waitUntil(t, "silence frame processed", func() bool {
		f.stt.mu.Lock()
		defer f.stt.mu.Unlock()
		return f.stt.pushed >= 2
	})

	f.stt.emit(speechtotext.Event{Text: "no wait stop", Start: time.Second, End: 2 * time.Second})
	f.stt.emit(speechtotext.Event{IsFinal: true, Confidence: 0.9, Start: 2 * time.Second, End: 2 * time.Second})

	utterance := f.recorder.waitFor(t, events.KindUserUtteranceFinal)
	if got := utterance.(events.UserUtteranceFinal).Text; got != "play no wait stop" {
		t.Fatalf("expected the reopened utterance to accumulate, got %q", got)
	}
	f.recorder.waitFor(t, events.KindTurnCompleted)
}
