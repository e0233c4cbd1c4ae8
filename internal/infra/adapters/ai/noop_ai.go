package ai

import (
	"context"
	"fmt"
	"strings"

	"content-engine/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAI)(nil)

// NoopAI echoes deterministic text; used in dev mode and tests so the
// pipeline runs without vendor credentials.
type NoopAI struct{}

func NewNoopAI() *NoopAI { return &NoopAI{} }

func (n *NoopAI) Name() string { return "noop" }

func (n *NoopAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop-model"}, nil
}

func (n *NoopAI) CountTokens(ctx context.Context, model, text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (n *NoopAI) Complete(ctx context.Context, req adapter.CompletionRequest) (adapter.CompletionResult, error) {
	text := fmt.Sprintf("Generated text for prompt: %s", firstLine(req.Prompt))
	return adapter.CompletionResult{
		Text:             text,
		PromptTokens:     len(strings.Fields(req.Prompt)),
		CompletionTokens: len(strings.Fields(text)),
	}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
