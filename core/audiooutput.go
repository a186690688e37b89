package orchestration

import "github.com/overtone-ai/overtone-core/core/audio"

// audioOutput is the playback facade used to handle optional client wiring.
// All methods are safe to call with no client configured.
type audioOutput struct {
	client AudioOutput
}

func newAudioOutput(client AudioOutput) *audioOutput {
	return &audioOutput{client: client}
}

func (a *audioOutput) set(client AudioOutput) {
	if a != nil {
		a.client = client
	}
}

func (a *audioOutput) isConfigured() bool {
	return a != nil && a.client != nil
}

func (a *audioOutput) encodingInfo() audio.EncodingInfo {
	if !a.isConfigured() {
		return audio.GetDefaultEncodingInfo()
	}
	return a.client.EncodingInfo()
}

func (a *audioOutput) Start() error {
	if !a.isConfigured() {
		return nil
	}
	return a.client.Start()
}

func (a *audioOutput) SendAudio(audio []byte) error {
	if !a.isConfigured() {
		return nil
	}
	return a.client.SendAudio(audio)
}

// Mark registers a playback mark. With no client configured the callback
// fires immediately so waiters don't hang.
func (a *audioOutput) Mark(mark string, callback func(string)) error {
	if !a.isConfigured() {
		if callback != nil {
			callback(mark)
		}
		return nil
	}
	return a.client.Mark(mark, callback)
}

func (a *audioOutput) ClearBuffer() {
	if !a.isConfigured() {
		return
	}
	a.client.ClearBuffer()
}

func (a *audioOutput) Close() error {
	if !a.isConfigured() {
		return nil
	}
	return a.client.Close()
}
