package domain

import "context"

// Completer produces text from a generative model for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
