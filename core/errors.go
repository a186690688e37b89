package orchestration

import "fmt"

// TranscriptionError reports a failed transcription stream. The turn aborts;
// consumed audio cannot be replayed to a different backend without gaps.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// ReasoningError reports a failed reasoning step. The step is retried once
// before the turn aborts.
type ReasoningError struct {
	Err error
}

func (e *ReasoningError) Error() string {
	return fmt.Sprintf("reasoning failed: %v", e.Err)
}

func (e *ReasoningError) Unwrap() error { return e.Err }

// SynthesisError reports failed speech synthesis. The turn degrades to a
// fallback acknowledgment instead of aborting.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
