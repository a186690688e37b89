package orchestration

import (
	"time"

	"github.com/overtone-ai/overtone-core/core/audio"
)

// speechWatcher confirms sustained speech activity from VAD-tagged frames.
// A single speech-likely frame is not enough; speech must persist for the
// configured window to reject noise and echo false positives. The same
// watcher drives turn starts in idle and barge-in detection during playback.
type speechWatcher struct {
	window time.Duration

	speechStart time.Time
	confirmedAt time.Time
	confirmed   bool
}

func newSpeechWatcher(window time.Duration) *speechWatcher {
	return &speechWatcher{window: window}
}

// Observe folds the next frame into the watcher and reports whether the
// confirmation window has just elapsed. It reports true exactly once per
// sustained speech run.
func (w *speechWatcher) Observe(frame audio.Frame) bool {
	if !frame.SpeechLikely {
		w.speechStart = time.Time{}
		w.confirmed = false
		return false
	}

	frameEnd := frame.CapturedAt.Add(frame.Duration())
	if w.speechStart.IsZero() {
		w.speechStart = frame.CapturedAt
	}

	if w.confirmed {
		return false
	}
	if frameEnd.Sub(w.speechStart) >= w.window {
		w.confirmed = true
		w.confirmedAt = frameEnd
		return true
	}
	return false
}

// Confirmed reports whether the current speech run has lasted the window.
func (w *speechWatcher) Confirmed() bool {
	return w.confirmed
}

// ConfirmedAt is the end of the frame that completed the confirmation
// window, used for the finalization-versus-barge-in tie-break.
func (w *speechWatcher) ConfirmedAt() time.Time {
	return w.confirmedAt
}

func (w *speechWatcher) Reset() {
	w.speechStart = time.Time{}
	w.confirmedAt = time.Time{}
	w.confirmed = false
}
