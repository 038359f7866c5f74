package domain

import "context"

// Router task names.
const TaskQuizGeneration = "quiz_generation"

// RouterMetrics is populated on both success and failure paths so callers
// can log and attribute cost regardless of outcome.
type RouterMetrics struct {
	RequestID           string `json:"request_id"`
	ModelUsed           string `json:"model_used"`
	ModelFamily         string `json:"model_family"`
	FallbackTriggered   bool   `json:"fallback_triggered"`
	ModelDecisionReason string `json:"model_decision_reason"`
	AttemptCount        int    `json:"attempt_count"`
	LatencyMS           int64  `json:"latency_ms"`
	PromptTokens        int    `json:"prompt_tokens"`
	CompletionTokens    int    `json:"completion_tokens"`
	TotalTokens         int    `json:"total_tokens"`
}

// ModelRouter invokes a language-model provider for one task. On failure the
// returned error is a *DomainError and metrics are still populated.
type ModelRouter interface {
	Invoke(ctx context.Context, task string, prompt string) (string, RouterMetrics, error)
}
