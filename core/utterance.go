package orchestration

import (
	"fmt"
	"strings"
	"time"

	"github.com/overtone-ai/overtone-core/core/speechtotext"
)

// utteranceAggregator folds streaming transcript events into one completed
// user utterance. Accepted segments stay ordered by end time; a later event
// whose start does not advance past the previous segment's start supersedes
// it. At most one final event closes the utterance.
type utteranceAggregator struct {
	segments []speechtotext.Event

	finalized   bool
	finalizedAt time.Time
	confidence  float64
}

func newUtteranceAggregator() *utteranceAggregator {
	return &utteranceAggregator{}
}

// Accept folds the next transcript event into the utterance. Events that
// violate the ordering contract are rejected with an error and leave the
// utterance unchanged.
func (a *utteranceAggregator) Accept(event speechtotext.Event) error {
	if a.finalized {
		return fmt.Errorf("utterance already finalized")
	}

	if event.IsFinal {
		if event.Text != "" {
			if err := a.acceptSegment(event); err != nil {
				return err
			}
		}
		a.finalized = true
		a.finalizedAt = time.Now()
		a.confidence = event.Confidence
		return nil
	}

	return a.acceptSegment(event)
}

func (a *utteranceAggregator) acceptSegment(event speechtotext.Event) error {
	if len(a.segments) > 0 {
		last := a.segments[len(a.segments)-1]
		if event.End < last.End {
			return fmt.Errorf("transcript event ends at %s, before already accepted %s", event.End, last.End)
		}
	}

	// Supersede partials the new event re-covers.
	for len(a.segments) > 0 && event.Start <= a.segments[len(a.segments)-1].Start {
		a.segments = a.segments[:len(a.segments)-1]
	}

	a.segments = append(a.segments, event)
	return nil
}

func (a *utteranceAggregator) Text() string {
	parts := make([]string, 0, len(a.segments))
	for _, segment := range a.segments {
		parts = append(parts, segment.Text)
	}
	return strings.Join(parts, " ")
}

func (a *utteranceAggregator) Confidence() float64 {
	return a.confidence
}

func (a *utteranceAggregator) Finalized() bool {
	return a.finalized
}

func (a *utteranceAggregator) FinalizedAt() time.Time {
	return a.finalizedAt
}

func (a *utteranceAggregator) Empty() bool {
	return len(a.segments) == 0
}

// Reopen clears the finalized flag so the utterance can keep accumulating.
// Used when new speech supersedes a finalization that lost the tie-break.
func (a *utteranceAggregator) Reopen() {
	a.finalized = false
	a.finalizedAt = time.Time{}
	a.confidence = 0
}

func (a *utteranceAggregator) Reset() {
	a.segments = nil
	a.finalized = false
	a.finalizedAt = time.Time{}
	a.confidence = 0
}
