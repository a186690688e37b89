package orchestration

import (
	"context"
	"encoding/binary"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/overtone-ai/overtone-core/core/audio"
	"github.com/overtone-ai/overtone-core/core/events"
	"github.com/overtone-ai/overtone-core/core/llms"
	"github.com/overtone-ai/overtone-core/core/speechtotext"
	"github.com/overtone-ai/overtone-core/core/texttospeech"
)

// pcmChunk builds a mono 16kHz linear16 chunk of the given duration filled
// with the given sample value. Loud values trip the voice detector, zero
// reads as silence.
func pcmChunk(d time.Duration, sample int16) []byte {
	samples := int(d * time.Duration(audio.DefaultSampleRate) / time.Second)
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}
	return pcm
}

func speechChunk(d time.Duration) []byte  { return pcmChunk(d, 4000) }
func silenceChunk(d time.Duration) []byte { return pcmChunk(d, 0) }

// eventRecorder collects orchestrator events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func (r *eventRecorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Kind() == kind {
			n++
		}
	}
	return n
}

func (r *eventRecorder) waitFor(t *testing.T, kind events.Kind) events.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for _, event := range r.events {
			if event.Kind() == kind {
				r.mu.Unlock()
				return event
			}
		}
		r.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for event %q, saw %v", kind, r.kinds())
	return nil
}

func waitUntil(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting until %s", what)
}

// fakeAudioInput feeds scripted capture chunks into the orchestrator.
type fakeAudioInput struct {
	chunks chan []byte
}

func newFakeAudioInput() *fakeAudioInput {
	return &fakeAudioInput{chunks: make(chan []byte, 16)}
}

func (f *fakeAudioInput) Stream(ctx context.Context, onAudio func([]byte)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pcm := <-f.chunks:
			onAudio(pcm)
		}
	}
}

func (f *fakeAudioInput) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (f *fakeAudioInput) Close() error { return nil }

// fakeAudioOutput records playback writes. Marks fire immediately unless
// holdMarks is set, which keeps playback "in flight" for barge-in tests.
type fakeAudioOutput struct {
	mu        sync.Mutex
	chunks    [][]byte
	cleared   int
	started   bool
	holdMarks bool
}

func (f *fakeAudioOutput) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeAudioOutput) SendAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, pcm)
	return nil
}

func (f *fakeAudioOutput) Mark(mark string, callback func(string)) error {
	f.mu.Lock()
	hold := f.holdMarks
	f.mu.Unlock()
	if !hold && callback != nil {
		callback(mark)
	}
	return nil
}

func (f *fakeAudioOutput) ClearBuffer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeAudioOutput) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (f *fakeAudioOutput) Close() error { return nil }

func (f *fakeAudioOutput) setHoldMarks(hold bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holdMarks = hold
}

func (f *fakeAudioOutput) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func (f *fakeAudioOutput) chunkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

// fakeSTT is a scriptable transcription client. Tests push transcript events
// through emit and stream faults through fail.
type fakeSTT struct {
	mu       sync.Mutex
	options  speechtotext.TranscriptionOptions
	started  int
	stopped  int
	pushed   int
	startErr error
}

func (f *fakeSTT) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	if f.startErr != nil {
		return f.startErr
	}
	options := speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options = options
	f.started++
	return nil
}

func (f *fakeSTT) SendAudio([]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed++
	return nil
}

func (f *fakeSTT) StopStream() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakeSTT) emit(event speechtotext.Event) {
	f.mu.Lock()
	callback := f.options.EventCallback
	f.mu.Unlock()
	if callback != nil {
		callback(event)
	}
}

func (f *fakeSTT) fail(err error) {
	f.mu.Lock()
	callback := f.options.ErrorCallback
	f.mu.Unlock()
	if callback != nil {
		callback(err)
	}
}

func (f *fakeSTT) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// fakeStream yields scripted chunks, or a single error.
type fakeStream struct {
	content   string
	toolCalls []llms.ToolCall
	err       error
}

func (s fakeStream) Chunks(context.Context) iter.Seq2[llms.StreamChunk, error] {
	return func(yield func(llms.StreamChunk, error) bool) {
		if s.err != nil {
			yield(nil, s.err)
			return
		}
		if s.content != "" {
			if !yield(fakeContentChunk{content: s.content}, nil) {
				return
			}
		}
		for _, call := range s.toolCalls {
			if !yield(fakeToolCallChunk{call: call}, nil) {
				return
			}
		}
	}
}

type fakeContentChunk struct{ content string }

func (fakeContentChunk) FinishReason() *string { return nil }
func (c fakeContentChunk) Content() string     { return c.content }

type fakeToolCallChunk struct{ call llms.ToolCall }

func (fakeToolCallChunk) FinishReason() *string     { return nil }
func (c fakeToolCallChunk) ToolCall() llms.ToolCall { return c.call }

// scriptedLLM returns its scripted streams in order; past the script it
// keeps answering with the last stream.
type scriptedLLM struct {
	mu      sync.Mutex
	streams []fakeStream
	calls   int
}

func (l *scriptedLLM) PromptWithStream(_ context.Context, _ ...llms.PromptOption) llms.Stream {
	l.mu.Lock()
	defer l.mu.Unlock()
	step := l.calls
	l.calls++
	if step >= len(l.streams) {
		return l.streams[len(l.streams)-1]
	}
	return l.streams[step]
}

func (l *scriptedLLM) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeTTS hands out fakeSpeechGenerators that echo a fixed audio chunk per
// sent text span.
type fakeTTS struct {
	mu         sync.Mutex
	generators []*fakeSpeechGenerator
	sendErr    error
}

func (t *fakeTTS) NewSpeechGenerator(_ context.Context, opts ...texttospeech.SynthesisOption) (texttospeech.SpeechGenerator, error) {
	options := texttospeech.SynthesisOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	generator := &fakeSpeechGenerator{options: options, sendErr: t.sendErr}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generators = append(t.generators, generator)
	return generator, nil
}

func (t *fakeTTS) generator(i int) *fakeSpeechGenerator {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.generators) {
		return nil
	}
	return t.generators[i]
}

type fakeSpeechGenerator struct {
	options texttospeech.SynthesisOptions

	mu        sync.Mutex
	sent      []string
	cancelled bool
	closed    bool
	sendErr   error
}

func (g *fakeSpeechGenerator) SendText(text string) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.mu.Lock()
	g.sent = append(g.sent, text)
	g.mu.Unlock()
	if g.options.SpeechAudioCallback != nil {
		g.options.SpeechAudioCallback(speechChunk(20 * time.Millisecond))
	}
	return nil
}

func (g *fakeSpeechGenerator) Mark() error { return nil }

func (g *fakeSpeechGenerator) EndOfText() error {
	if g.options.SpeechEndedCallback != nil {
		g.options.SpeechEndedCallback()
	}
	return nil
}

func (g *fakeSpeechGenerator) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = true
	return nil
}

func (g *fakeSpeechGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *fakeSpeechGenerator) wasCancelled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled
}
