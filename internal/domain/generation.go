package domain

// GenerationRequest is the provider-agnostic input to a language model call.
// Provider and model are fixed at construction time, not per request.
type GenerationRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}
