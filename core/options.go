package orchestration

import (
	"context"
	"time"

	"github.com/overtone-ai/overtone-core/core/audio"
	"github.com/overtone-ai/overtone-core/core/events"
	"github.com/overtone-ai/overtone-core/core/llms"
	"github.com/overtone-ai/overtone-core/core/speechtotext"
	"github.com/overtone-ai/overtone-core/core/texttospeech"
	"github.com/overtone-ai/overtone-core/core/tools"
)

type OrchestratorOption func(*Orchestrator)

type LLMWithStream interface {
	PromptWithStream(ctx context.Context, opts ...llms.PromptOption) llms.Stream
}

func WithStreamingLLM(client LLMWithStream) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.set(client)
	}
}

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	StopStream() error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
	}
}

type TextToSpeech interface {
	NewSpeechGenerator(ctx context.Context, opts ...texttospeech.SynthesisOption) (texttospeech.SpeechGenerator, error)
}

func WithTextToSpeechClient(client TextToSpeech) OrchestratorOption {
	return func(o *Orchestrator) {
		o.textToSpeech.set(client)
	}
}

type AudioInput interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	EncodingInfo() audio.EncodingInfo
	Close() error
}

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.set(client) }
}

type AudioOutput interface {
	Start() error
	SendAudio(audio []byte) error
	Mark(mark string, callback func(string)) error
	ClearBuffer()
	EncodingInfo() audio.EncodingInfo
	Close() error
}

func WithAudioOutput(client AudioOutput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.set(client) }
}

func WithToolRegistry(registry *tools.Registry) OrchestratorOption {
	return func(o *Orchestrator) { o.tools = registry }
}

// WithInstructions sets the system instructions passed to the reasoner on
// every turn.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) { o.instructions = instructions }
}

// WithEventCallback registers a callback for turn-lifecycle events. The
// callback runs on the orchestrator's run loop and must not block.
func WithEventCallback(callback func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) { o.eventCallback = callback }
}

func WithTurnPolicy(policy TurnPolicy) OrchestratorOption {
	return func(o *Orchestrator) { o.policy = policy.withDefaults() }
}

// WithVADThreshold overrides the energy threshold of the voice detector.
func WithVADThreshold(threshold float64) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.detector = audio.NewVoiceDetector(threshold) }
}

// TurnPolicy holds the tunable timing and ceiling knobs of the turn state
// machine. Zero values fall back to the defaults.
type TurnPolicy struct {
	// SilenceDebounce is how long silence must last after a final transcript
	// before reasoning starts, so mid-sentence pauses don't cut the user off.
	SilenceDebounce time.Duration
	// BargeInConfirmation is how long user speech must be sustained during
	// playback before it counts as an interruption rather than noise.
	BargeInConfirmation time.Duration
	// SpeechStartConfirmation is how long speech must be sustained in idle
	// before a turn begins.
	SpeechStartConfirmation time.Duration

	// StepCeiling bounds the reasoner's tool-call loop per turn.
	StepCeiling int

	ToolTimeout        time.Duration
	ReasonerTimeout    time.Duration
	ReasonerRetryDelay time.Duration

	// FallbackAcknowledgment is spoken (or surfaced as text) when synthesis
	// fails after the response was generated.
	FallbackAcknowledgment string
	// AbortApology is the indication surfaced when the turn aborts.
	AbortApology string
	// CeilingResponse is the synthesized final response when the step
	// ceiling is reached.
	CeilingResponse string
}

func DefaultTurnPolicy() TurnPolicy {
	return TurnPolicy{}.withDefaults()
}

func (p TurnPolicy) withDefaults() TurnPolicy {
	if p.SilenceDebounce == 0 {
		p.SilenceDebounce = 700 * time.Millisecond
	}
	if p.BargeInConfirmation == 0 {
		p.BargeInConfirmation = 300 * time.Millisecond
	}
	if p.SpeechStartConfirmation == 0 {
		p.SpeechStartConfirmation = 150 * time.Millisecond
	}
	if p.StepCeiling == 0 {
		p.StepCeiling = 6
	}
	if p.ToolTimeout == 0 {
		p.ToolTimeout = 10 * time.Second
	}
	if p.ReasonerTimeout == 0 {
		p.ReasonerTimeout = 30 * time.Second
	}
	if p.ReasonerRetryDelay == 0 {
		p.ReasonerRetryDelay = 250 * time.Millisecond
	}
	if p.FallbackAcknowledgment == "" {
		p.FallbackAcknowledgment = "Done. I couldn't say it out loud, though."
	}
	if p.AbortApology == "" {
		p.AbortApology = "Sorry, I ran into a problem with that. Could you try again?"
	}
	if p.CeilingResponse == "" {
		p.CeilingResponse = "I wasn't able to complete that request after several attempts."
	}
	return p
}
