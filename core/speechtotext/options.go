package speechtotext

import "github.com/overtone-ai/overtone-core/core/audio"

type TranscriptionOptions struct {
	// EventCallback is called for every transcript event, partial and final.
	EventCallback func(event Event)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	// ErrorCallback is called when the transcription stream fails after it
	// was successfully opened.
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithEventCallback(callback func(event Event)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EventCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithErrorCallback(callback func(error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
