package service

import (
	"fmt"
	"strings"

	"notequiz/internal/domain"
)

// buildQuizPrompt renders the quiz_generation task prompt from a normalized
// config and the caller's notes. The model must answer with a single JSON
// object so the router can enforce parseability.
func buildQuizPrompt(cfg domain.QuizConfig, notesText string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert study-quiz author. Create quiz questions strictly from the notes below.\n\n")

	switch cfg.QuestionType {
	case domain.QuestionTypeMCQ:
		sb.WriteString(fmt.Sprintf("Generate exactly %d multiple-choice questions.\n", cfg.QuestionCount))
	case domain.QuestionTypeTyping:
		sb.WriteString(fmt.Sprintf("Generate exactly %d short-answer questions.\n", cfg.QuestionCount))
	case domain.QuestionTypeHybrid:
		sb.WriteString(fmt.Sprintf("Generate exactly %d multiple-choice questions and %d short-answer questions.\n",
			cfg.QuestionCounts.MCQ, cfg.QuestionCounts.Typing))
	}

	if cfg.Coverage == domain.CoverageBroadSample {
		sb.WriteString("Sample broadly across all topics in the notes.\n")
	} else {
		sb.WriteString("Focus on the key concepts of the notes.\n")
	}
	sb.WriteString(fmt.Sprintf("Target difficulty: %s.\n\n", cfg.Difficulty))

	sb.WriteString(`Respond with ONLY a JSON object of this exact shape:
{
  "questions": [
    {"type": "mcq", "prompt": "...", "options": ["...", "...", "...", "..."], "answer": "..."},
    {"type": "short", "prompt": "...", "answer": "..."}
  ]
}

Rules:
1. "type" is "mcq" or "short"; use only the kinds requested above.
2. Every prompt must be at most 180 characters.
3. MCQ questions must have 3 to 5 options and "answer" must be copied verbatim from "options".
4. Short questions must have a concise canonical "answer".
5. Do not invent facts that are not in the notes.

Notes:
`)
	sb.WriteString(notesText)

	return sb.String()
}
