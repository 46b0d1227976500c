package ai

import "context"

// Runtime is the minimal interface implemented by inference backends: the
// hosted OpenRouter-compatible client, a local Ollama runtime, and the
// offline dry-run substitute. Downstream stages only ever see the raw
// response string and cannot tell which variant produced it.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for runtime selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderDryRun     = "dry-run"
)
