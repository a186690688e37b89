package audio

import "math"

// Voice-activity detection over short-term energy and zero-crossing rate.
// No model, no cgo: a frame votes "speech" when its RMS energy clears the
// threshold and its zero-crossing rate sits inside the band typical for
// voiced speech; votes are smoothed over a small sliding window so single
// noisy frames do not flip the signal.

const (
	// DefaultVADThreshold is the RMS energy floor (int16 sample units).
	DefaultVADThreshold = 300.0

	// Zero-crossing band accepted as speech. Hum and DC sit below, broadband
	// noise and high-frequency buzz sit above.
	minSpeechZCR = 0.01
	maxSpeechZCR = 0.35

	voteWindow = 4
)

type VoiceDetector struct {
	threshold float64
	votes     []bool
}

func NewVoiceDetector(threshold float64) *VoiceDetector {
	if threshold <= 0 {
		threshold = DefaultVADThreshold
	}
	return &VoiceDetector{threshold: threshold}
}

// SpeechLikely reports whether the frame, smoothed over the recent vote
// window, looks like speech.
func (d *VoiceDetector) SpeechLikely(frame Frame) bool {
	d.votes = append(d.votes, d.vote(frame))
	if len(d.votes) > voteWindow {
		d.votes = d.votes[len(d.votes)-voteWindow:]
	}

	speechVotes := 0
	for _, v := range d.votes {
		if v {
			speechVotes++
		}
	}
	return speechVotes*2 >= len(d.votes) && speechVotes > 0
}

// Reset clears the smoothing window, e.g. after the capture device reopens.
func (d *VoiceDetector) Reset() {
	d.votes = nil
}

func (d *VoiceDetector) vote(frame Frame) bool {
	samples := frame.Samples()
	if len(samples) == 0 {
		return false
	}

	var energy float64
	crossings := 0
	for i, s := range samples {
		f := float64(s)
		energy += f * f
		if i > 0 && (samples[i-1] >= 0) != (s >= 0) {
			crossings++
		}
	}

	rms := math.Sqrt(energy / float64(len(samples)))
	if rms < d.threshold {
		return false
	}

	zcr := float64(crossings) / float64(len(samples))
	return zcr >= minSpeechZCR && zcr <= maxSpeechZCR
}
