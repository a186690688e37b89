package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Frame is one fixed-duration chunk of captured PCM audio. Frames are
// immutable once produced; the capture pipeline hands them downstream and
// never touches them again.
type Frame struct {
	// PCM holds the raw little-endian samples in the source encoding.
	PCM []byte
	// SampleRate is the capture rate in Hz.
	SampleRate int
	// CapturedAt is the monotonic capture timestamp.
	CapturedAt time.Time
	// Seq is the frame sequence number, monotonically increasing for the
	// lifetime of one capture handle.
	Seq uint64
	// SpeechLikely is set by the voice-activity detector when the frame
	// looks like it contains speech.
	SpeechLikely bool
}

// Duration returns the play time of the frame assuming 16-bit mono samples.
func (f Frame) Duration() time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	samples := len(f.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// Samples decodes the frame payload as little-endian int16 samples.
func (f Frame) Samples() []int16 {
	samples := make([]int16, len(f.PCM)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(f.PCM[i*2:]))
	}
	return samples
}

// DeviceError reports a capture or playback device failure. Device errors
// abort the current turn but never the session; the caller retries opening
// the device with backoff.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
