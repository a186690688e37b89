package llms

import (
	"context"
	"iter"
)

// Stream is a lazily-evaluated model response. Chunks performs the request
// when iterated and yields chunks as they arrive.
type Stream interface {
	Chunks(context.Context) iter.Seq2[StreamChunk, error]
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamToolCallChunk interface {
	StreamChunk
	ToolCall() ToolCall
}

type StreamUsageChunk interface {
	StreamChunk
	Usage() Usage
}

// Usage reports token accounting for a completed stream.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int

	// CachedInputTokens is the portion of InputTokens served from the
	// provider's prompt cache.
	CachedInputTokens int
}
