package adapter

import "context"

// CompletionRequest is one prompt against one model.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// CompletionResult carries the generated text plus token usage as reported by
// the provider. Usage may be zero when a vendor omits it; callers fall back to
// local token counting.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

func (r CompletionResult) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// AIServiceAdapter is the port for LLM text generation. Implementations must
// honor ctx cancellation and surface vendor failures as *domain.ProviderError.
type AIServiceAdapter interface {
	Name() string
	ListModels(ctx context.Context) ([]string, error)

	// CountTokens returns prompt tokens for the text (provider-specific
	// counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model, text string) (int, error)

	// Complete executes a single generation call.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
