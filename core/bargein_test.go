package orchestration

import (
	"testing"
	"time"

	"github.com/overtone-ai/overtone-core/core/audio"
)

func speechFrame(at time.Time, d time.Duration, speech bool) audio.Frame {
	pcm := silenceChunk(d)
	if speech {
		pcm = speechChunk(d)
	}
	return audio.Frame{
		PCM:          pcm,
		SampleRate:   audio.DefaultSampleRate,
		CapturedAt:   at,
		SpeechLikely: speech,
	}
}

func TestSpeechWatcherConfirmsSustainedSpeech(t *testing.T) {
	watcher := newSpeechWatcher(300 * time.Millisecond)
	base := time.Now()

	// Five 100ms speech frames; the window elapses at the end of the third.
	confirmations := 0
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * 100 * time.Millisecond)
		if watcher.Observe(speechFrame(at, 100*time.Millisecond, true)) {
			confirmations++
			if i != 2 {
				t.Fatalf("expected confirmation at frame 2, got frame %d", i)
			}
		}
	}
	if confirmations != 1 {
		t.Fatalf("expected exactly one confirmation per run, got %d", confirmations)
	}
	if !watcher.Confirmed() {
		t.Fatalf("expected watcher to stay confirmed through the run")
	}

	want := base.Add(300 * time.Millisecond)
	if !watcher.ConfirmedAt().Equal(want) {
		t.Fatalf("expected confirmation at %v, got %v", want, watcher.ConfirmedAt())
	}
}

func TestSpeechWatcherResetsOnSilence(t *testing.T) {
	watcher := newSpeechWatcher(300 * time.Millisecond)
	base := time.Now()

	// A 200ms blip, then silence: no confirmation.
	watcher.Observe(speechFrame(base, 200*time.Millisecond, true))
	watcher.Observe(speechFrame(base.Add(200*time.Millisecond), 100*time.Millisecond, false))
	if watcher.Confirmed() {
		t.Fatalf("expected blip shorter than the window to not confirm")
	}

	// The next run must start the window over.
	at := base.Add(300 * time.Millisecond)
	if watcher.Observe(speechFrame(at, 100*time.Millisecond, true)) {
		t.Fatalf("expected fresh run to need the full window again")
	}
	if !watcher.Observe(speechFrame(at.Add(100*time.Millisecond), 200*time.Millisecond, true)) {
		t.Fatalf("expected confirmation once the fresh run spans the window")
	}
}

func TestSpeechWatcherSingleLongFrameConfirms(t *testing.T) {
	watcher := newSpeechWatcher(150 * time.Millisecond)
	if !watcher.Observe(speechFrame(time.Now(), 200*time.Millisecond, true)) {
		t.Fatalf("expected one frame spanning the window to confirm")
	}
}

func TestSpeechWatcherReset(t *testing.T) {
	watcher := newSpeechWatcher(100 * time.Millisecond)
	watcher.Observe(speechFrame(time.Now(), 200*time.Millisecond, true))
	if !watcher.Confirmed() {
		t.Fatalf("expected confirmation before reset")
	}

	watcher.Reset()
	if watcher.Confirmed() {
		t.Fatalf("expected reset to clear confirmation")
	}
	if !watcher.ConfirmedAt().IsZero() {
		t.Fatalf("expected reset to clear the confirmation time")
	}
}
