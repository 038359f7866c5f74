package llmrouter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/logger"
	"notequiz/internal/util"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Router implements domain.ModelRouter on top of a langchaingo llms.Model.
// One Invoke is one logical attempt: the default model, plus at most one
// substitution to the fallback model when the default fails transiently.
// The one-retry-with-new-trace-id policy lives with the caller, not here.
type Router struct {
	llm             llms.Model
	defaultModel    string
	fallbackModel   string
	fallbackEnabled bool
}

// NewRouter creates a Router from the AI configuration. The llms.Model is a
// single provider client; per-call model selection uses llms.WithModel.
func NewRouter(llm llms.Model, aiCfg config.AIConfig) *Router {
	return &Router{
		llm:             llm,
		defaultModel:    aiCfg.DefaultModel,
		fallbackModel:   aiCfg.FallbackModel,
		fallbackEnabled: aiCfg.FallbackEnabled,
	}
}

// Invoke runs one task prompt through the provider. Metrics are populated on
// both success and failure so callers can attribute cost regardless of
// outcome; errors are always *domain.DomainError.
func (r *Router) Invoke(ctx context.Context, task string, prompt string) (string, domain.RouterMetrics, error) {
	start := time.Now()
	metrics := domain.RouterMetrics{
		RequestID:           util.NewULID(),
		ModelUsed:           r.defaultModel,
		ModelFamily:         ClassifyModelFamily(r.defaultModel),
		ModelDecisionReason: "default",
	}

	content, derr := r.generate(ctx, prompt, r.defaultModel, &metrics)
	if derr != nil && domain.IsTransientModelError(derr) && r.fallbackEnabled &&
		r.fallbackModel != "" && r.fallbackModel != r.defaultModel {
		logger.Get().Warn("Model router falling back",
			zap.String("task", task),
			zap.String("request_id", metrics.RequestID),
			zap.String("default_model", r.defaultModel),
			zap.String("fallback_model", r.fallbackModel),
			zap.String("cause", string(derr.Code)))

		metrics.FallbackTriggered = true
		metrics.ModelUsed = r.fallbackModel
		metrics.ModelFamily = ClassifyModelFamily(r.fallbackModel)
		metrics.ModelDecisionReason = "fallback_after_" + strings.ToLower(string(derr.Code))
		content, derr = r.generate(ctx, prompt, r.fallbackModel, &metrics)
	}

	metrics.LatencyMS = time.Since(start).Milliseconds()
	if derr != nil {
		logger.Get().Error("Model router invocation failed",
			zap.String("task", task),
			zap.String("request_id", metrics.RequestID),
			zap.String("model", metrics.ModelUsed),
			zap.Int("attempts", metrics.AttemptCount),
			zap.Error(derr))
		return "", metrics, derr
	}

	logger.Get().Info("Model router invocation succeeded",
		zap.String("task", task),
		zap.String("request_id", metrics.RequestID),
		zap.String("model", metrics.ModelUsed),
		zap.Bool("fallback_triggered", metrics.FallbackTriggered),
		zap.Int64("latency_ms", metrics.LatencyMS),
		zap.Int("total_tokens", metrics.TotalTokens))
	return content, metrics, nil
}

// generate performs one physical provider call with the given model identity.
func (r *Router) generate(ctx context.Context, prompt, model string, metrics *domain.RouterMetrics) (string, *domain.DomainError) {
	metrics.AttemptCount++

	resp, err := r.llm.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithModel(model),
		llms.WithTemperature(0.2),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", classifyProviderError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewError(domain.CodeModelEmptyResponse, "provider returned no choices", nil)
	}

	choice := resp.Choices[0]
	accumulateTokenUsage(metrics, choice.GenerationInfo)

	content := cleanModelOutput(choice.Content)
	if content == "" {
		return "", domain.NewError(domain.CodeModelEmptyResponse, "provider returned empty content", nil)
	}
	if !json.Valid([]byte(content)) {
		return "", domain.NewError(domain.CodeModelNonJSON, "provider output is not valid JSON", nil)
	}
	return content, nil
}

// classifyProviderError sorts provider failures into the taxonomy. Auth and
// rate-limit errors are terminal and never eligible for fallback.
func classifyProviderError(err error) *domain.DomainError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") || strings.Contains(msg, "incorrect api key"):
		return domain.NewError(domain.CodeAuthError, "provider rejected credentials", err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota exceeded"):
		return domain.NewError(domain.CodeRateLimit, "provider rate limit exceeded", err)
	default:
		return domain.NewError(domain.CodeOpenAIError, "provider call failed", err)
	}
}

// cleanModelOutput strips markdown code fences that some models wrap around
// JSON responses.
func cleanModelOutput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func accumulateTokenUsage(metrics *domain.RouterMetrics, info map[string]any) {
	metrics.PromptTokens += intFromGenerationInfo(info, "PromptTokens")
	metrics.CompletionTokens += intFromGenerationInfo(info, "CompletionTokens")
	metrics.TotalTokens += intFromGenerationInfo(info, "TotalTokens")
}

func intFromGenerationInfo(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

var _ domain.ModelRouter = (*Router)(nil)
