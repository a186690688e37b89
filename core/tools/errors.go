package tools

import "fmt"

// ValidationError reports arguments that do not match the tool's schema. It
// is surfaced to the model as a failed result, never as a hard fault.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Reason)
}

// ToolExecutionError reports a tool handler that ran but failed. Like
// validation errors it is surfaced to the model as a failed result.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
