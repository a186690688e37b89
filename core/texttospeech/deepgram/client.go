package deepgram

import (
	"fmt"
	"slices"

	"github.com/overtone-ai/overtone-core/core/audio"
)

// TextToSpeechClient opens streaming speech generators against Deepgram's
// realtime speak API. The client itself holds no connection; each generator
// owns its own websocket.
type TextToSpeechClient struct {
	voice deepgramVoice
}

func NewTextToSpeechClient(voice deepgramVoice) (*TextToSpeechClient, error) {
	if voice == "" {
		voice = defaultVoice
	}
	if !slices.Contains(AvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice %q", voice)
	}

	return &TextToSpeechClient{voice: voice}, nil
}

type deepgramVoice string

const (
	VoiceThalia    deepgramVoice = "aura-2-thalia-en"
	VoiceAndromeda deepgramVoice = "aura-2-andromeda-en"
	VoiceOrion     deepgramVoice = "aura-2-orion-en"
	VoiceHelena    deepgramVoice = "aura-2-helena-en"
	VoiceZeus      deepgramVoice = "aura-2-zeus-en"
)

const defaultVoice = VoiceThalia

func AvailableVoices() []deepgramVoice {
	return []deepgramVoice{VoiceThalia, VoiceAndromeda, VoiceOrion, VoiceHelena, VoiceZeus}
}

func convertEncoding(encoding audio.EncodingInfo) (sampleRate int, format string, err error) {
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
		sampleRate = encoding.SampleRate
	default:
		return 0, "", fmt.Errorf("unsupported sample rate")
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
		format = "linear16"
	case audio.EncodingALaw:
		format = "alaw"
	case audio.EncodingMulaw:
		format = "mulaw"
	default:
		return 0, "", fmt.Errorf("unsupported encoding")
	}

	return sampleRate, format, nil
}
