package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/overtone-ai/overtone-core/core/audio"
	"github.com/overtone-ai/overtone-core/core/events"
	"github.com/overtone-ai/overtone-core/core/llms"
	"github.com/overtone-ai/overtone-core/core/speechtotext"
)

// transcriptMsg tags a transcript event with the STT session that produced
// it, so events from a superseded stream cannot leak into the next turn.
type transcriptMsg struct {
	session uint64
	event   speechtotext.Event
}

type sttErrMsg struct {
	session uint64
	err     error
}

// Run starts the session: capture begins immediately and turns run until the
// context ends. It blocks until shutdown. The run loop is the single writer
// of the conversation history and the current turn.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.started.CompareAndSwap(false, true) {
		return fmt.Errorf("orchestrator is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(o.runDone)
	go func() {
		select {
		case <-o.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := o.audioOutput.Start(); err != nil {
		return fmt.Errorf("failed to start audio output: %w", err)
	}

	go o.captureLoop(ctx)

	r := &runState{
		o:            o,
		ctx:          ctx,
		agg:          newUtteranceAggregator(),
		startWatcher: newSpeechWatcher(o.policy.SpeechStartConfirmation),
		bargeWatcher: newSpeechWatcher(o.policy.BargeInConfirmation),
	}

	logger.Info("Orchestrator running")
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return ctx.Err()
		case frame := <-o.frames:
			r.handleFrame(frame)
		case msg := <-o.transcripts:
			r.handleTranscript(msg)
		case msg := <-o.sttErrs:
			r.handleSTTError(msg)
		case <-r.debounceC():
			r.handleDebounce()
		case outcome := <-o.turnDone:
			r.handleTurnDone(outcome)
		}
	}
}

// captureLoop keeps the microphone stream alive across device faults. The
// retry policy lives here; the device client itself never retries.
func (o *Orchestrator) captureLoop(ctx context.Context) {
	backoff := 500 * time.Millisecond
	for {
		err := o.audioInput.stream(ctx, o.enqueueFrame)
		if ctx.Err() != nil || err == nil {
			return
		}

		logger.Error("Audio capture failed, restarting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
}

// runState is the run loop's private working set. Everything here is touched
// from the run loop goroutine only.
type runState struct {
	o   *Orchestrator
	ctx context.Context

	turn         *TurnState
	agg          *utteranceAggregator
	startWatcher *speechWatcher
	bargeWatcher *speechWatcher

	debounce *time.Timer

	sttSession uint64
	sttCancel  context.CancelFunc

	workerCancel  context.CancelFunc
	workerRunning bool

	utteranceText string
	reasonPending bool
}

func (r *runState) phase() TurnPhase {
	if r.turn == nil {
		return PhaseIdle
	}
	return r.turn.Phase()
}

func (r *runState) handleFrame(frame audio.Frame) {
	switch r.phase() {
	case PhaseIdle:
		if r.startWatcher.Observe(frame) {
			r.beginTurn()
		}
	case PhaseListening, PhaseTranscribing:
		if err := r.o.speechToText.push(frame.PCM); err != nil {
			r.abortTurn("transcription", err)
			return
		}
		// Track sustained speech so a finalization that the user talked
		// straight through can lose the tie-break in handleTranscript.
		r.bargeWatcher.Observe(frame)
	case PhaseReasoning, PhaseToolDispatch, PhaseResponding:
		if r.bargeWatcher.Observe(frame) {
			r.bargeIn()
		}
	}
}

func (r *runState) beginTurn() {
	turn := newTurnState()
	r.turn = turn
	r.o.currentTurn.Store(turn)
	r.agg.Reset()
	r.bargeWatcher.Reset()
	r.utteranceText = ""

	r.o.emit(events.NewTurnStarted(turn.ID()))
	r.o.emit(events.NewTurnPhaseChanged(turn.ID(), string(PhaseIdle), string(PhaseListening)))
	r.o.emit(events.NewUserSpeechStarted())

	if err := r.startSTT(); err != nil {
		r.abortTurn("transcription", err)
	}
}

// startSTT opens a transcription stream for the current turn. Each stream
// gets its own session number; stale callbacks are dropped by it.
func (r *runState) startSTT() error {
	r.sttSession++
	session := r.sttSession

	sttCtx, cancel := context.WithCancel(r.ctx)
	r.sttCancel = cancel

	return r.o.speechToText.start(sttCtx, r.o.audioInput.encodingInfo(),
		speechtotext.WithEventCallback(func(event speechtotext.Event) {
			select {
			case r.o.transcripts <- transcriptMsg{session: session, event: event}:
			case <-sttCtx.Done():
			}
		}),
		speechtotext.WithErrorCallback(func(err error) {
			select {
			case r.o.sttErrs <- sttErrMsg{session: session, err: err}:
			default:
			}
		}),
	)
}

func (r *runState) endSTT() {
	if err := r.o.speechToText.end(); err != nil {
		logger.Debug("Failed to close transcription stream", "error", err)
	}
	if r.sttCancel != nil {
		r.sttCancel()
		r.sttCancel = nil
	}
}

func (r *runState) handleTranscript(msg transcriptMsg) {
	if msg.session != r.sttSession || r.turn == nil {
		return
	}

	phase := r.turn.Phase()
	if phase != PhaseListening && phase != PhaseTranscribing {
		return
	}
	if phase == PhaseListening {
		r.transition(PhaseTranscribing)
	}

	if err := r.agg.Accept(msg.event); err != nil {
		logger.Warn("Rejected transcript event", "turn", r.turn.ID(), "error", err)
		return
	}

	if !msg.event.IsFinal {
		r.o.emit(events.NewUserTranscriptUpdated(r.agg.Text()))
		return
	}

	// Tie-break: the finalization wins only if it was emitted strictly before
	// the racing speech run's confirmation window elapsed. Otherwise the user
	// talked through it and the utterance keeps accumulating.
	if r.bargeWatcher.Confirmed() && !r.agg.FinalizedAt().Before(r.bargeWatcher.ConfirmedAt()) {
		r.agg.Reopen()
		r.disarmDebounce()
		return
	}

	r.o.emit(events.NewUserSpeechEnded())
	r.armDebounce()
}

func (r *runState) armDebounce() {
	r.disarmDebounce()
	r.debounce = time.NewTimer(r.o.policy.SilenceDebounce)
}

func (r *runState) disarmDebounce() {
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
}

func (r *runState) debounceC() <-chan time.Time {
	if r.debounce == nil {
		return nil
	}
	return r.debounce.C
}

// handleDebounce fires once silence has held long enough after a finalized
// utterance and hands the turn to a reasoning worker.
func (r *runState) handleDebounce() {
	r.disarmDebounce()
	if r.turn == nil || r.turn.Phase() != PhaseTranscribing || !r.agg.Finalized() {
		return
	}

	if r.agg.Empty() {
		// Nothing intelligible was said; keep listening rather than reason
		// over an empty utterance.
		r.agg.Reopen()
		return
	}

	r.endSTT()
	if r.transition(PhaseReasoning) != nil {
		return
	}

	r.utteranceText = r.agg.Text()
	r.o.emit(events.NewUserUtteranceFinal(r.utteranceText, r.agg.Confidence()))

	// Barge-in during the response needs a fresh confirmation window.
	r.bargeWatcher.Reset()

	if r.workerRunning {
		// The superseded turn's worker still owns the history tail; reasoning
		// starts once its entries are appended.
		r.reasonPending = true
		return
	}
	r.spawnWorker()
}

func (r *runState) spawnWorker() {
	turn := r.turn
	text := r.utteranceText
	snapshot := r.o.history.Snapshot()

	workerCtx, cancel := context.WithCancel(r.ctx)
	r.workerCancel = cancel
	r.workerRunning = true
	r.reasonPending = false

	go func() {
		defer cancel()
		r.o.turnDone <- r.o.runTurn(workerCtx, turn, text, snapshot)
	}()
}

func (r *runState) handleTurnDone(outcome turnOutcome) {
	r.workerRunning = false
	r.workerCancel = nil

	r.o.history.Append(outcome.entries...)

	current := r.turn == outcome.turn
	switch {
	case outcome.failure != nil:
		if current {
			r.failTurn(outcome.failure.class, outcome.failure.err)
		} else {
			logger.Warn("Superseded turn failed",
				"turn", outcome.turn.ID(), "error", outcome.failure.err)
		}
	case outcome.interrupted:
		// The superseding turn is already live; its truncated entry is in the
		// history and there is nothing else to record.
	default:
		if current {
			r.o.emit(events.NewTurnCompleted(outcome.turn.ID(), time.Since(outcome.turn.StartedAt())))
			r.transition(PhaseIdle)
			r.clearTurn()
		}
	}

	if r.reasonPending && r.turn != nil && r.turn.Phase() == PhaseReasoning {
		r.spawnWorker()
	}
}

func (r *runState) handleSTTError(msg sttErrMsg) {
	if msg.session != r.sttSession || r.turn == nil {
		return
	}

	phase := r.turn.Phase()
	if phase != PhaseListening && phase != PhaseTranscribing {
		return
	}
	r.abortTurn("transcription", msg.err)
}

// bargeIn interrupts the current turn on confirmed user speech. Playback is
// cleared by the cancelled worker as it unwinds; the new turn is listening
// before that happens so no user audio is lost.
func (r *runState) bargeIn() {
	old := r.turn
	old.markInterrupted()
	if r.workerCancel != nil {
		r.workerCancel()
	}
	r.disarmDebounce()

	logger.Info("Barge-in confirmed", "turn", old.ID())
	r.o.emit(events.NewTurnInterrupted(old.ID()))

	r.beginTurn()
}

// abortTurn tears the current turn down on a hard fault and surfaces an
// audible apology on a best-effort basis.
func (r *runState) abortTurn(class string, err error) {
	if r.turn == nil {
		return
	}
	logger.Error("Turn aborted", "turn", r.turn.ID(), "class", class, "error", err)

	turn := r.turn
	r.failTurn(class, err)
	go r.o.speakApology(turn)
}

// failTurn records the abort, notes it in history so the next turn's reasoner
// sees what happened, and returns to idle.
func (r *runState) failTurn(class string, err error) {
	turn := r.turn
	r.endSTT()
	r.disarmDebounce()

	r.transition(PhaseAborted)
	r.o.emit(events.NewTurnFailed(turn.ID(), class, err.Error(), time.Since(turn.StartedAt())))
	r.o.history.Append(llms.Entry{
		Role:    llms.RoleSystem,
		Content: fmt.Sprintf("Note: the assistant's previous turn was aborted (%s): %s", class, err),
	})

	r.transition(PhaseIdle)
	r.clearTurn()
}

func (r *runState) clearTurn() {
	r.turn = nil
	r.o.currentTurn.Store(nil)
	r.agg.Reset()
	r.startWatcher.Reset()
	r.bargeWatcher.Reset()
	r.utteranceText = ""
}

func (r *runState) transition(to TurnPhase) error {
	if r.turn == nil {
		return nil
	}
	if err := r.o.transitionTurn(r.turn, to); err != nil {
		logger.Warn("Rejected turn phase transition",
			"turn", r.turn.ID(), "to", string(to), "error", err)
		return err
	}
	return nil
}

func (r *runState) shutdown() {
	r.disarmDebounce()
	r.endSTT()
	if r.workerCancel != nil {
		r.workerCancel()
	}
}
