package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/overtone-ai/overtone-core/core/llms"
)

// CallRequest is a single tool invocation requested by the model.
type CallRequest struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result is the outcome of a tool invocation. Failures carry the error
// rendered for the model; they are data, not faults.
type Result struct {
	CallID  string
	Status  Status
	Payload string
	Error   string
}

type registeredTool struct {
	spec    llms.ToolSpec
	handler func(ctx context.Context, arguments json.RawMessage) (string, error)
}

// Registry holds the tools the assistant may call and dispatches calls
// against them. Calls are dispatched at most once per call ID.
type Registry struct {
	mu    sync.Mutex
	tools map[string]registeredTool
	order []string

	dispatched map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		tools:      map[string]registeredTool{},
		dispatched: map[string]bool{},
	}
}

// Register adds a tool whose arguments unmarshal into T. The schema is
// reflected from T and unknown argument fields are rejected at call time.
func Register[T any](r *Registry, name, description string, handler func(ctx context.Context, args T) (string, error)) error {
	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	var zero T
	schema := reflector.Reflect(&zero)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	r.tools[name] = registeredTool{
		spec: llms.ToolSpec{
			Name:        name,
			Description: description,
			Schema:      schema,
		},
		handler: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			var args T
			decoder := json.NewDecoder(bytes.NewReader(arguments))
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&args); err != nil {
				return "", &ValidationError{Tool: name, Reason: err.Error()}
			}
			if err := checkRequired(schema, arguments); err != nil {
				return "", &ValidationError{Tool: name, Reason: err.Error()}
			}
			return handler(ctx, args)
		},
	}
	r.order = append(r.order, name)
	return nil
}

func checkRequired(schema *jsonschema.Schema, arguments json.RawMessage) error {
	if schema == nil || len(schema.Required) == 0 {
		return nil
	}

	present := map[string]json.RawMessage{}
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &present); err != nil {
			return fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}

	for _, field := range schema.Required {
		if _, ok := present[field]; !ok {
			return fmt.Errorf("missing required field %q", field)
		}
	}
	return nil
}

// Specs returns the registered tools in registration order.
func (r *Registry) Specs() []llms.ToolSpec {
	r.mu.Lock()
	defer r.mu.Unlock()

	specs := make([]llms.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec)
	}
	return specs
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tools[name]
	return ok
}

// Invoke runs a single tool call and returns its result. Failures of any
// kind, including unknown tools, invalid arguments, timeouts and repeated
// call IDs, are reported as failed results.
func (r *Registry) Invoke(ctx context.Context, req CallRequest, timeout time.Duration) Result {
	ctx, span := tracer.Start(ctx, "invoke tool")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", req.Name),
		attribute.String("tool.call_id", req.ID),
	)

	r.mu.Lock()
	if r.dispatched[req.ID] {
		r.mu.Unlock()
		err := fmt.Errorf("call %q already dispatched", req.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failedResult(req.ID, err)
	}
	r.dispatched[req.ID] = true
	tool, ok := r.tools[req.Name]
	r.mu.Unlock()

	if !ok {
		err := fmt.Errorf("unknown tool %q", req.Name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failedResult(req.ID, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		payload string
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &ToolExecutionError{Tool: req.Name, Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		payload, err := tool.handler(ctx, req.Arguments)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		err := &ToolExecutionError{Tool: req.Name, Err: ctx.Err()}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failedResult(req.ID, err)
	case out := <-done:
		if out.err != nil {
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
			return failedResult(req.ID, out.err)
		}
		return Result{CallID: req.ID, Status: StatusSuccess, Payload: out.payload}
	}
}

// InvokeBatch runs the requested calls concurrently and waits for all of
// them. Results are returned in request order.
func (r *Registry) InvokeBatch(ctx context.Context, reqs []CallRequest, timeout time.Duration) []Result {
	results := make([]Result, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.Invoke(ctx, req, timeout)
		}()
	}
	wg.Wait()

	return results
}

func failedResult(callID string, err error) Result {
	return Result{CallID: callID, Status: StatusFailure, Error: err.Error()}
}
