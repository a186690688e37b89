package orchestration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/overtone-ai/overtone-core/core/audio"
	"github.com/overtone-ai/overtone-core/core/events"
	"github.com/overtone-ai/overtone-core/core/llms"
	"github.com/overtone-ai/overtone-core/core/tools"
)

const (
	frameQueueSize      = 32
	transcriptQueueSize = 64
)

// Orchestrator sequences capture, transcription, reasoning, tool dispatch,
// synthesis and playback into conversational turns. One orchestrator owns
// one session.
type Orchestrator struct {
	policy       TurnPolicy
	instructions string

	llm          *llm
	speechToText *speechToText
	textToSpeech *textToSpeech
	audioInput   *audioInput
	audioOutput  *audioOutput
	tools        *tools.Registry

	history       *conversationHistory
	eventCallback func(events.Event)

	frames      chan audio.Frame
	transcripts chan transcriptMsg
	sttErrs     chan sttErrMsg
	turnDone    chan turnOutcome

	currentTurn atomic.Pointer[TurnState]

	started   atomic.Bool
	stop      chan struct{}
	runDone   chan struct{}
	closeOnce sync.Once
}

func New(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		policy:       DefaultTurnPolicy(),
		llm:          newLLM(nil),
		speechToText: newSpeechToText(nil),
		textToSpeech: newTextToSpeech(nil),
		audioInput:   newAudioInput(nil),
		audioOutput:  newAudioOutput(nil),
		history:      newConversationHistory(),
		frames:       make(chan audio.Frame, frameQueueSize),
		transcripts:  make(chan transcriptMsg, transcriptQueueSize),
		sttErrs:      make(chan sttErrMsg, 1),
		turnDone:     make(chan turnOutcome, 1),
		stop:         make(chan struct{}),
		runDone:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Phase reports the in-flight turn's phase, or idle between turns.
func (o *Orchestrator) Phase() TurnPhase {
	if turn := o.currentTurn.Load(); turn != nil {
		return turn.Phase()
	}
	return PhaseIdle
}

// History returns a deep copy of the conversation so far.
func (o *Orchestrator) History() []llms.Entry {
	return o.history.Snapshot()
}

func (o *Orchestrator) emit(event events.Event) {
	if o.eventCallback != nil {
		o.eventCallback(event)
	}
}

func (o *Orchestrator) transitionTurn(turn *TurnState, to TurnPhase) error {
	from := turn.Phase()
	if err := turn.transition(to); err != nil {
		return err
	}
	o.emit(events.NewTurnPhaseChanged(turn.ID(), string(from), string(to)))
	return nil
}

// Close stops the run loop and releases every held device and stream.
// Safe to call more than once.
func (o *Orchestrator) Close() error {
	var errs error
	o.closeOnce.Do(func() {
		close(o.stop)
		if o.started.Load() {
			<-o.runDone
		}

		errs = errors.Join(
			o.audioInput.Close(),
			o.speechToText.Close(context.Background()),
			o.audioOutput.Close(),
		)
	})
	return errs
}

// enqueueFrame delivers a captured frame to the run loop without ever
// blocking capture. When the queue is full the oldest frame is dropped so
// fresh audio keeps flowing.
func (o *Orchestrator) enqueueFrame(frame audio.Frame) {
	for {
		select {
		case o.frames <- frame:
			return
		default:
			select {
			case <-o.frames:
			default:
			}
		}
	}
}
