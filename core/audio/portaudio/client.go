package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/overtone-ai/overtone-core/core/audio"
)

// Client captures microphone audio through PortAudio. It holds the default
// capture device exclusively between NewClient and Close.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in []int16

	closeOnce sync.Once
	closeErr  error
}

// NewClient opens the default capture device. bufferSize is the number of
// samples per frame; at 16kHz, 320 samples is a 20ms frame.
func NewClient(bufferSize int) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = audio.GetDefaultEncodingInfo().BytesFor(audio.DefaultFrameDuration) / 2
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, &audio.DeviceError{Op: "initialize", Err: err}
	}

	in := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, bufferSize, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, &audio.DeviceError{Op: "open", Err: err}
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
	}, nil
}

// Stream reads fixed-size frames from the device and hands them to onAudio
// until the context is cancelled. Device read failures are returned, never
// retried internally.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.stream.Start(); err != nil {
		return &audio.DeviceError{Op: "start", Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			if err := c.stream.Stop(); err != nil {
				return &audio.DeviceError{Op: "stop", Err: err}
			}
			return nil
		default:
			if err := c.stream.Read(); err != nil {
				return &audio.DeviceError{Op: "read", Err: err}
			}

			audioBuffer := bytes.Buffer{}
			if err := binary.Write(&audioBuffer, binary.LittleEndian, c.in); err != nil {
				return fmt.Errorf("failed to encode captured samples: %w", err)
			}
			onAudio(audioBuffer.Bytes())
		}
	}
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// Close releases the capture device. Safe to call on every exit path.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.stream != nil {
			if err := c.stream.Close(); err != nil {
				c.closeErr = &audio.DeviceError{Op: "close", Err: err}
			}
		}
		if err := portaudio.Terminate(); err != nil && c.closeErr == nil {
			c.closeErr = &audio.DeviceError{Op: "terminate", Err: err}
		}
	})
	return c.closeErr
}
