package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/overtone-ai/overtone-core/core/events"
	"github.com/overtone-ai/overtone-core/core/llms"
	"github.com/overtone-ai/overtone-core/core/tools"
)

type turnFailure struct {
	class string
	err   error
}

// turnOutcome is what a finished turn worker hands back to the run loop.
// entries are the new history entries in order, starting with the user's
// utterance; the run loop is the only writer of the shared history.
type turnOutcome struct {
	turn    *TurnState
	entries []llms.Entry

	interrupted bool
	failure     *turnFailure
}

// runTurn drives one turn from a finalized utterance to a delivered response:
// the reasoning loop with tool dispatch, then synthesis and playback. It runs
// on its own goroutine so the run loop stays responsive to barge-in.
func (o *Orchestrator) runTurn(ctx context.Context, turn *TurnState, utteranceText string, snapshot []llms.Entry) turnOutcome {
	ctx, span := tracer.Start(ctx, "run turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("turn.id", turn.ID()),
		attribute.String("turn.utterance", utteranceText),
	)

	userEntry := llms.Entry{Role: llms.RoleUser, Content: utteranceText}
	entries := append(snapshot, userEntry)
	outcome := turnOutcome{turn: turn, entries: []llms.Entry{userEntry}}

	var response string
	for step := 1; ; step++ {
		if step > o.policy.StepCeiling {
			logger.Warn("Reasoning step ceiling reached", "turn", turn.ID(), "ceiling", o.policy.StepCeiling)
			span.AddEvent("step ceiling reached")
			response = o.policy.CeilingResponse
			break
		}

		content, toolCalls, err := o.reasonStep(ctx, entries)
		if err != nil {
			if ctx.Err() != nil {
				outcome.interrupted = turn.Interrupted()
				return outcome
			}

			// One retry bounds turn latency while riding out transient
			// backend faults.
			span.AddEvent("retrying reasoning step")
			select {
			case <-ctx.Done():
				outcome.interrupted = turn.Interrupted()
				return outcome
			case <-time.After(o.policy.ReasonerRetryDelay):
			}
			content, toolCalls, err = o.reasonStep(ctx, entries)
			if err != nil {
				if ctx.Err() != nil {
					outcome.interrupted = turn.Interrupted()
					return outcome
				}
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				outcome.failure = &turnFailure{class: "reasoning", err: err}
				o.speakApology(turn)
				return outcome
			}
		}

		if len(toolCalls) == 0 {
			response = content
			break
		}

		if err := o.transitionTurn(turn, PhaseToolDispatch); err != nil {
			outcome.failure = &turnFailure{class: "tool_dispatch", err: err}
			return outcome
		}

		dispatched := o.dispatchToolCalls(ctx, toolCalls)
		assistantEntry := llms.Entry{Role: llms.RoleAssistant, Content: content, ToolCalls: dispatched}
		entries = append(entries, assistantEntry)
		outcome.entries = append(outcome.entries, assistantEntry)

		if ctx.Err() != nil {
			outcome.interrupted = turn.Interrupted()
			return outcome
		}
		if err := o.transitionTurn(turn, PhaseReasoning); err != nil {
			outcome.failure = &turnFailure{class: "reasoning", err: err}
			return outcome
		}
	}

	if err := o.transitionTurn(turn, PhaseResponding); err != nil {
		outcome.failure = &turnFailure{class: "responding", err: err}
		return outcome
	}
	o.emit(events.NewAssistantResponseSegment(response))
	o.emit(events.NewAssistantResponseFinal(response))

	assistantEntry := llms.Entry{Role: llms.RoleAssistant, Content: response}
	delivered := o.deliverResponse(ctx, turn, response)
	if delivered.interrupted {
		assistantEntry.Truncated = true
		outcome.interrupted = true
	}
	outcome.entries = append(outcome.entries, assistantEntry)

	return outcome
}

// reasonStep runs one reasoner call and collects its streamed content and
// tool calls. The step is bounded by the reasoner timeout.
func (o *Orchestrator) reasonStep(ctx context.Context, entries []llms.Entry) (string, []llms.ToolCall, error) {
	stepCtx, cancel := context.WithTimeout(ctx, o.policy.ReasonerTimeout)
	defer cancel()

	opts := []llms.PromptOption{
		llms.WithInstructions(o.instructions),
		llms.WithEntries(entries...),
	}
	if o.tools != nil {
		opts = append(opts, llms.WithToolSpecs(o.tools.Specs()...))
	}

	stream, err := o.llm.promptWithStream(stepCtx, opts...)
	if err != nil {
		return "", nil, err
	}

	var content strings.Builder
	var toolCalls []llms.ToolCall
	for chunk, err := range stream.Chunks(stepCtx) {
		if err != nil {
			return content.String(), toolCalls, &ReasoningError{Err: err}
		}
		switch c := chunk.(type) {
		case llms.StreamContentChunk:
			content.WriteString(c.Content())
		case llms.StreamToolCallChunk:
			toolCalls = append(toolCalls, c.ToolCall())
		}
	}
	return content.String(), toolCalls, nil
}

// dispatchToolCalls invokes a batch concurrently and waits for every result.
// Results whose call ID does not match a request in the batch are rejected;
// failures of any kind come back as data for the next reasoning step.
func (o *Orchestrator) dispatchToolCalls(ctx context.Context, calls []llms.ToolCall) []llms.ToolCall {
	requests := make([]tools.CallRequest, 0, len(calls))
	requested := map[string]bool{}
	for _, call := range calls {
		o.emit(events.NewToolCallStarted(call.ID, call.Name, call.Arguments))
		requests = append(requests, tools.CallRequest{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: json.RawMessage(call.Arguments),
		})
		requested[call.ID] = true
	}

	var results []tools.Result
	if o.tools != nil {
		results = o.tools.InvokeBatch(ctx, requests, o.policy.ToolTimeout)
	} else {
		for _, request := range requests {
			results = append(results, tools.Result{
				CallID: request.ID,
				Status: tools.StatusFailure,
				Error:  "no tool registry configured",
			})
		}
	}

	byCallID := map[string]tools.Result{}
	for _, result := range results {
		if !requested[result.CallID] {
			logger.Warn("Rejected tool result with unmatched call id", "call_id", result.CallID)
			continue
		}
		byCallID[result.CallID] = result
	}

	dispatched := make([]llms.ToolCall, 0, len(calls))
	for _, call := range calls {
		result, ok := byCallID[call.ID]
		if !ok {
			result = tools.Result{
				CallID: call.ID,
				Status: tools.StatusFailure,
				Error:  "tool produced no result",
			}
		}

		switch result.Status {
		case tools.StatusSuccess:
			call.Response = result.Payload
			o.emit(events.NewToolCallCompleted(call.ID, call.Name, result.Payload))
		default:
			call.Response = fmt.Sprintf(`{"error":%q}`, result.Error)
			o.emit(events.NewToolCallFailed(call.ID, call.Name, result.Error))
		}
		dispatched = append(dispatched, call)
	}
	return dispatched
}

type deliveryResult struct {
	interrupted bool
	fallback    bool
}

// deliverResponse synthesizes and plays the response. Synthesis faults
// degrade to a fallback acknowledgment, they never abort the turn; the
// reasoning work is already sunk cost.
func (o *Orchestrator) deliverResponse(ctx context.Context, turn *TurnState, text string) deliveryResult {
	session, err := o.newSpeechSession(ctx, func() {
		o.emit(events.NewAssistantPlaybackStarted(turn.ID()))
	})
	if err != nil {
		return o.fallbackDelivery(turn, err)
	}

	if err := session.SendText(text); err != nil {
		session.Cancel()
		return o.fallbackDelivery(turn, err)
	}

	if err := session.Finish(ctx); err != nil {
		if ctx.Err() != nil {
			// Barge-in or shutdown: playback already cleared by Finish.
			o.emit(events.NewAssistantPlaybackCancelled(turn.ID(), text))
			return deliveryResult{interrupted: turn.Interrupted()}
		}
		return o.fallbackDelivery(turn, err)
	}

	o.emit(events.NewAssistantPlaybackEnded(turn.ID()))
	return deliveryResult{}
}

func (o *Orchestrator) fallbackDelivery(turn *TurnState, cause error) deliveryResult {
	logger.Warn("Speech synthesis failed, falling back to acknowledgment",
		"turn", turn.ID(), "error", cause)
	o.emit(events.NewAssistantResponseFallback(o.policy.FallbackAcknowledgment))
	return deliveryResult{fallback: true}
}

// speakApology makes the abort audible on a best-effort basis. It uses a
// fresh short-lived context so a cancelled turn context cannot silence it.
func (o *Orchestrator) speakApology(turn *TurnState) {
	o.emit(events.NewAssistantResponseFallback(o.policy.AbortApology))

	if !o.textToSpeech.isConfigured() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := o.newSpeechSession(ctx, nil)
	if err != nil {
		return
	}
	if err := session.SendText(o.policy.AbortApology); err != nil {
		session.Cancel()
		return
	}
	_ = session.Finish(ctx)
}
