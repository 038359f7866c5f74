package llmrouter

import "strings"

// Model families, used for logging and analytics attribution only. Business
// logic never branches on the family.
const (
	FamilyGPT     = "gpt"
	FamilyOSeries = "o-series"
	FamilyGemini  = "gemini"
	FamilyClaude  = "claude"
	FamilyLlama   = "llama"
	FamilyQwen    = "qwen"
	FamilyMistral = "mistral"
	FamilyUnknown = "unknown"
)

// ClassifyModelFamily maps a provider model identifier to a stable family
// name via prefix patterns. Unrecognized identifiers classify as unknown
// rather than failing.
func ClassifyModelFamily(model string) string {
	id := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(id, "gpt-"), strings.HasPrefix(id, "chatgpt"):
		return FamilyGPT
	case strings.HasPrefix(id, "o1"), strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"):
		return FamilyOSeries
	case strings.HasPrefix(id, "gemini"):
		return FamilyGemini
	case strings.HasPrefix(id, "claude"):
		return FamilyClaude
	case strings.HasPrefix(id, "llama"), strings.HasPrefix(id, "meta-llama"):
		return FamilyLlama
	case strings.HasPrefix(id, "qwen"):
		return FamilyQwen
	case strings.HasPrefix(id, "mistral"), strings.HasPrefix(id, "mixtral"):
		return FamilyMistral
	default:
		return FamilyUnknown
	}
}
