package miniaudio

import (
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/overtone-ai/overtone-core/core/audio"
)

// Client owns one miniaudio context shared by the capture and playback
// devices. The devices are lazily initialized and released together.
type Client struct {
	audioContext *malgo.AllocatedContext

	capture  captureClient
	playback playbackClient

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewClient() (*Client, error) {
	audioContext, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &audio.DeviceError{Op: "init context", Err: err}
	}

	return &Client{audioContext: audioContext}, nil
}

// Capture returns the capture-side device, initializing it on first use.
func (c *Client) Capture() (*captureClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture.device == nil {
		if err := c.capture.Init(c.audioContext); err != nil {
			return nil, &audio.DeviceError{Op: "init capture", Err: err}
		}
	}
	return &c.capture, nil
}

// Playback returns the playback-side device, initializing it on first use.
func (c *Client) Playback() (*playbackClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playback.device == nil {
		if err := c.playback.Init(c.audioContext); err != nil {
			return nil, &audio.DeviceError{Op: "init playback", Err: err}
		}
	}
	return &c.playback, nil
}

// Close releases both devices and the shared context on every exit path.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if err := c.capture.Uninit(); err != nil {
			c.closeErr = err
		}
		if err := c.playback.Uninit(); err != nil && c.closeErr == nil {
			c.closeErr = err
		}
		if c.audioContext != nil {
			if err := c.audioContext.Uninit(); err != nil && c.closeErr == nil {
				c.closeErr = &audio.DeviceError{Op: "uninit context", Err: err}
			}
			c.audioContext.Free()
		}
	})
	return c.closeErr
}
