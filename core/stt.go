package orchestration

import (
	"context"
	"fmt"

	"github.com/overtone-ai/overtone-core/core/audio"
	"github.com/overtone-ai/overtone-core/core/speechtotext"
)

// speechToText is the STT facade used to handle optional client wiring and
// wrap stream faults in the transcription error class.
type speechToText struct {
	client SpeechToText
}

func newSpeechToText(client SpeechToText) *speechToText {
	return &speechToText{client: client}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

// start opens a transcription stream for one utterance.
func (s *speechToText) start(ctx context.Context, encoding audio.EncodingInfo, opts ...speechtotext.TranscriptionOption) error {
	if !s.isConfigured() {
		return &TranscriptionError{Err: fmt.Errorf("no speech-to-text client configured")}
	}

	opts = append(opts, speechtotext.WithEncodingInfo(encoding))
	if err := s.client.Transcribe(ctx, opts...); err != nil {
		return &TranscriptionError{Err: err}
	}
	return nil
}

// push forwards captured audio into the open stream. Pushes never block the
// caller beyond the websocket write.
func (s *speechToText) push(pcm []byte) error {
	if !s.isConfigured() {
		return nil
	}
	if err := s.client.SendAudio(pcm); err != nil {
		return &TranscriptionError{Err: err}
	}
	return nil
}

// end signals end-of-utterance so the backend flushes its final transcript.
func (s *speechToText) end() error {
	if !s.isConfigured() {
		return nil
	}
	if err := s.client.StopStream(); err != nil {
		return &TranscriptionError{Err: err}
	}
	return nil
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	}
	return nil
}
