package orchestration

import (
	"context"
	"errors"
	"testing"
)

func TestSpeechSessionPlaysToCompletion(t *testing.T) {
	ttsClient := &fakeTTS{}
	output := &fakeAudioOutput{}
	o := New(WithTextToSpeechClient(ttsClient), WithAudioOutput(output))

	session, err := o.newSpeechSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to open speech session: %v", err)
	}

	if err := session.SendText("hello there"); err != nil {
		t.Fatalf("failed to send text: %v", err)
	}
	if err := session.Finish(context.Background()); err != nil {
		t.Fatalf("expected playback to complete, got %v", err)
	}

	if output.chunkCount() != 1 {
		t.Fatalf("expected one synthesized chunk, got %d", output.chunkCount())
	}
	if output.clearCount() != 0 {
		t.Fatalf("expected no buffer clears on a clean run")
	}
}

func TestSpeechSessionCancelClearsPlayback(t *testing.T) {
	ttsClient := &fakeTTS{}
	output := &fakeAudioOutput{}
	o := New(WithTextToSpeechClient(ttsClient), WithAudioOutput(output))

	session, err := o.newSpeechSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to open speech session: %v", err)
	}
	if err := session.SendText("a response being spoken"); err != nil {
		t.Fatalf("failed to send text: %v", err)
	}

	session.Cancel()

	if output.clearCount() != 1 {
		t.Fatalf("expected the playback buffer cleared, got %d clears", output.clearCount())
	}
	if !ttsClient.generator(0).wasCancelled() {
		t.Fatalf("expected the generator cancelled")
	}

	// Cancel is idempotent.
	session.Cancel()
	if output.clearCount() != 1 {
		t.Fatalf("expected repeated cancel to be a no-op")
	}
}

func TestSpeechSessionContextCancelInterruptsFinish(t *testing.T) {
	ttsClient := &fakeTTS{}
	output := &fakeAudioOutput{holdMarks: true}
	o := New(WithTextToSpeechClient(ttsClient), WithAudioOutput(output))

	session, err := o.newSpeechSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to open speech session: %v", err)
	}
	if err := session.SendText("a very long answer"); err != nil {
		t.Fatalf("failed to send text: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := session.Finish(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected finish to surface the cancellation, got %v", err)
	}
	if output.clearCount() != 1 {
		t.Fatalf("expected interrupted playback to be cleared")
	}
}

func TestSpeechSessionFirstAudioCallback(t *testing.T) {
	ttsClient := &fakeTTS{}
	output := &fakeAudioOutput{}
	o := New(WithTextToSpeechClient(ttsClient), WithAudioOutput(output))

	fired := 0
	session, err := o.newSpeechSession(context.Background(), func() { fired++ })
	if err != nil {
		t.Fatalf("failed to open speech session: %v", err)
	}

	if err := session.SendText("first"); err != nil {
		t.Fatalf("failed to send text: %v", err)
	}
	if err := session.SendText("second"); err != nil {
		t.Fatalf("failed to send text: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected the first-audio callback to fire once, got %d", fired)
	}
}

func TestSpeechSessionRequiresClient(t *testing.T) {
	o := New(WithAudioOutput(&fakeAudioOutput{}))

	_, err := o.newSpeechSession(context.Background(), nil)
	var synthesisErr *SynthesisError
	if !errors.As(err, &synthesisErr) {
		t.Fatalf("expected a synthesis error with no client configured, got %v", err)
	}
}
