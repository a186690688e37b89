package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/overtone-ai/overtone-core/core/texttospeech"
)

// textToSpeech is the synthesis facade used to handle optional client wiring.
type textToSpeech struct {
	client TextToSpeech
}

func newTextToSpeech(client TextToSpeech) *textToSpeech {
	return &textToSpeech{client: client}
}

func (t *textToSpeech) set(client TextToSpeech) {
	if t != nil {
		t.client = client
	}
}

func (t *textToSpeech) isConfigured() bool {
	return t != nil && t.client != nil
}

// speechSession drives one response's synthesis and playback. Text streams
// in through SendText while audio flows out to the playback sink; Finish
// waits until everything queued has actually been heard.
type speechSession struct {
	generator texttospeech.SpeechGenerator
	output    *audioOutput

	playbackDone chan struct{}
	doneOnce     sync.Once
	errs         chan error

	cancelOnce sync.Once
}

// newSpeechSession opens a speech generator wired to the playback sink.
// onFirstAudio fires when the first audio chunk is produced, marking the
// audible start of the response.
func (o *Orchestrator) newSpeechSession(ctx context.Context, onFirstAudio func()) (*speechSession, error) {
	if !o.textToSpeech.isConfigured() {
		return nil, &SynthesisError{Err: fmt.Errorf("no text-to-speech client configured")}
	}

	session := &speechSession{
		output:       o.audioOutput,
		playbackDone: make(chan struct{}),
		errs:         make(chan error, 1),
	}

	var firstAudioOnce sync.Once
	generator, err := o.textToSpeech.client.NewSpeechGenerator(ctx,
		texttospeech.WithEncodingInfo(o.audioOutput.encodingInfo()),
		texttospeech.WithSpeechAudioCallback(func(audio []byte) {
			if onFirstAudio != nil {
				firstAudioOnce.Do(onFirstAudio)
			}
			if err := session.output.SendAudio(audio); err != nil {
				session.fail(err)
			}
		}),
		texttospeech.WithSpeechEndedCallback(func() {
			// All text is synthesized and queued; the mark fires once the
			// sink has actually played it.
			if err := session.output.Mark(uuid.NewString(), func(string) {
				session.finishPlayback()
			}); err != nil {
				session.fail(err)
			}
		}),
		texttospeech.WithErrorCallback(func(err error) {
			session.fail(err)
		}),
	)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	session.generator = generator

	return session, nil
}

func (s *speechSession) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *speechSession) finishPlayback() {
	s.doneOnce.Do(func() { close(s.playbackDone) })
}

func (s *speechSession) SendText(text string) error {
	if err := s.generator.SendText(text); err != nil {
		return &SynthesisError{Err: err}
	}
	return nil
}

// Finish signals end-of-text and waits until playback of everything queued
// has completed, synthesis fails, or the context ends.
func (s *speechSession) Finish(ctx context.Context) error {
	if err := s.generator.EndOfText(); err != nil {
		return &SynthesisError{Err: err}
	}

	select {
	case <-ctx.Done():
		s.Cancel()
		return ctx.Err()
	case err := <-s.errs:
		return &SynthesisError{Err: err}
	case <-s.playbackDone:
		return nil
	}
}

// Cancel discards remaining synthesis and clears queued playback. Output
// stops audibly within one playback period.
func (s *speechSession) Cancel() {
	s.cancelOnce.Do(func() {
		if err := s.generator.Cancel(); err != nil {
			logger.Debug("Failed to cancel speech generator", "error", err)
		}
		s.output.ClearBuffer()
		s.finishPlayback()
	})
}
