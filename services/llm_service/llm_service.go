package llm_service

import "context"

// LLMService is the language-model collaborator used for both the document
// cleanup pass and answer generation. Failures are terminal for the
// operation that triggered the call; there is no retry policy.
type LLMService interface {
    CallLLM(ctx context.Context, config map[string]interface{}, prompt string) (string, error)
}
