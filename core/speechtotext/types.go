package speechtotext

import "time"

// Event is one transcript update for the in-flight utterance.
//
// Events for a given utterance arrive in non-decreasing End order. Partial
// events are superseded by later partial or final events covering the same
// span; at most one final event closes the utterance.
type Event struct {
	Text string
	// IsFinal marks the event that closes the utterance.
	IsFinal bool
	// Confidence is the backend's confidence in Text, in [0, 1].
	Confidence float64
	// Start and End locate the transcribed span on the utterance timeline.
	Start time.Duration
	End   time.Duration
}
