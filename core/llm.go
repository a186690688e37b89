package orchestration

import (
	"context"
	"fmt"

	"github.com/overtone-ai/overtone-core/core/llms"
)

// llm is the reasoner facade used to handle optional client wiring.
type llm struct {
	client LLMWithStream
}

func newLLM(client LLMWithStream) *llm {
	return &llm{client: client}
}

func (l *llm) set(client LLMWithStream) {
	if l != nil {
		l.client = client
	}
}

func (l *llm) isConfigured() bool {
	return l != nil && l.client != nil
}

func (l *llm) promptWithStream(ctx context.Context, opts ...llms.PromptOption) (llms.Stream, error) {
	if !l.isConfigured() {
		return nil, &ReasoningError{Err: fmt.Errorf("no llm client configured")}
	}
	return l.client.PromptWithStream(ctx, opts...), nil
}
