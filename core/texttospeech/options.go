package texttospeech

import "github.com/overtone-ai/overtone-core/core/audio"

type SynthesisOptions struct {
	// SpeechAudioCallback is called whenever the synthesizer produces an
	// audio chunk.
	SpeechAudioCallback func(audio []byte)
	// SpeechMarkCallback is called once per mark, after the speech up to the
	// marked text has been generated.
	SpeechMarkCallback func(markedText string)
	// SpeechEndedCallback is called once all requested speech has been
	// generated and the generator has closed.
	SpeechEndedCallback func()
	// ErrorCallback is called when the synthesizer fails after the generator
	// was successfully opened.
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithSpeechAudioCallback(callback func([]byte)) SynthesisOption {
	return func(o *SynthesisOptions) { o.SpeechAudioCallback = callback }
}

func WithSpeechMarkCallback(callback func(string)) SynthesisOption {
	return func(o *SynthesisOptions) { o.SpeechMarkCallback = callback }
}

func WithSpeechEndedCallback(callback func()) SynthesisOption {
	return func(o *SynthesisOptions) { o.SpeechEndedCallback = callback }
}

func WithErrorCallback(callback func(error)) SynthesisOption {
	return func(o *SynthesisOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

type SpeechGenerator interface {
	// SendText sends text to the generator. Speech is guaranteed to be
	// generated in the order text is sent.
	//
	// SendText errors if EndOfText, Cancel or Close has been called.
	SendText(string) error
	// Mark marks the current point in the text. The mark callback fires
	// after the speech up to this point has been generated, though not
	// necessarily at the exact text boundary.
	//
	// Mark errors if EndOfText, Cancel or Close has been called.
	Mark() error
	// EndOfText signals that no more text will be sent. The generator closes
	// on its own once all remaining speech has been generated.
	//
	// EndOfText errors if Cancel or Close has been called. Repeated calls
	// are ignored.
	EndOfText() error
	// Cancel discards any speech not yet generated and closes the generator.
	//
	// Cancel errors if Close has been called. Repeated calls are ignored.
	Cancel() error
	// Close immediately closes the generator. No more speech is produced
	// after this call. Repeated calls are ignored.
	Close() error
}
