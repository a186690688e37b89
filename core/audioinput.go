package orchestration

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/overtone-ai/overtone-core/core/audio"
)

// audioInput is the capture facade used to normalize input behavior. It tags
// raw capture chunks with sequence numbers, capture timestamps and the voice
// activity verdict before they reach the run loop.
type audioInput struct {
	client   AudioInput
	detector *audio.VoiceDetector

	seq atomic.Uint64
}

func newAudioInput(client AudioInput) *audioInput {
	return &audioInput{
		client:   client,
		detector: audio.NewVoiceDetector(audio.DefaultVADThreshold),
	}
}

func (a *audioInput) set(client AudioInput) {
	if a != nil {
		a.client = client
	}
}

func (a *audioInput) isConfigured() bool {
	return a != nil && a.client != nil
}

func (a *audioInput) encodingInfo() audio.EncodingInfo {
	if !a.isConfigured() {
		return audio.GetDefaultEncodingInfo()
	}
	return a.client.EncodingInfo()
}

// stream runs the capture loop, delivering tagged frames until the context
// ends or the device fails. Device failures are returned, never retried
// internally; the orchestrator owns the retry/backoff policy.
func (a *audioInput) stream(ctx context.Context, onFrame func(audio.Frame)) error {
	if !a.isConfigured() {
		<-ctx.Done()
		return ctx.Err()
	}

	encoding := a.client.EncodingInfo()
	err := a.client.Stream(ctx, func(pcm []byte) {
		frame := audio.Frame{
			PCM:        pcm,
			SampleRate: encoding.SampleRate,
			CapturedAt: time.Now(),
			Seq:        a.seq.Add(1),
		}
		frame.SpeechLikely = a.detector.SpeechLikely(frame)
		onFrame(frame)
	})
	if err != nil {
		var deviceErr *audio.DeviceError
		if errors.As(err, &deviceErr) {
			return err
		}
		return &audio.DeviceError{Op: "stream", Err: err}
	}
	return nil
}

func (a *audioInput) Close() error {
	if !a.isConfigured() {
		return nil
	}
	return a.client.Close()
}
