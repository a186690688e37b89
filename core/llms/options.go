package llms

// PromptOptions carries everything a prompt needs beyond the model itself.
type PromptOptions struct {
	Instructions string
	Entries      []Entry
	Tools        []ToolSpec
}

type PromptOption func(*PromptOptions)

// WithInstructions sets the system instructions for the prompt. Repeating
// this option overwrites the previous instructions.
func WithInstructions(instructions string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = instructions
	}
}

// WithEntries adds conversation entries to the prompt. Repeating this option
// sequentially adds more entries.
func WithEntries(entries ...Entry) PromptOption {
	return func(opts *PromptOptions) {
		opts.Entries = append(opts.Entries, entries...)
	}
}

// WithToolSpecs adds tools the model is allowed to call. Repeating this
// option sequentially adds more tools.
func WithToolSpecs(tools ...ToolSpec) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}
