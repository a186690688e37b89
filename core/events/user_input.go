package events

const (
	// KindUserSpeechStarted identifies the start of user speech activity.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies the end of user speech activity.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserTranscriptUpdated identifies an interim transcript snapshot.
	KindUserTranscriptUpdated Kind = "user_input.transcript_updated"
	// KindUserUtteranceFinal identifies the terminal transcript for the
	// utterance.
	KindUserUtteranceFinal Kind = "user_input.utterance_final"
)

// UserSpeechStarted marks the beginning of user speech activity.
type UserSpeechStarted struct {
	Base
}

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks the end of user speech activity.
type UserSpeechEnded struct {
	Base
}

// NewUserSpeechEnded creates a user speech ended event.
func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserTranscriptUpdated carries a mutable snapshot of the transcript so far.
type UserTranscriptUpdated struct {
	Base
	Text string
}

// NewUserTranscriptUpdated creates a transcript updated event.
func NewUserTranscriptUpdated(text string) UserTranscriptUpdated {
	return UserTranscriptUpdated{Base: NewBase(KindUserTranscriptUpdated), Text: text}
}

// UserUtteranceFinal carries the terminal transcript for the utterance.
type UserUtteranceFinal struct {
	Base
	Text       string
	Confidence float64
}

// NewUserUtteranceFinal creates an utterance final event.
func NewUserUtteranceFinal(text string, confidence float64) UserUtteranceFinal {
	return UserUtteranceFinal{Base: NewBase(KindUserUtteranceFinal), Text: text, Confidence: confidence}
}
