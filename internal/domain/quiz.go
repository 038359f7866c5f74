package domain

import (
	"fmt"
	"time"
)

// QuestionType discriminates the question union.
type QuestionType string

const (
	QuestionTypeMCQ    QuestionType = "mcq"
	QuestionTypeTyping QuestionType = "typing"
	QuestionTypeHybrid QuestionType = "hybrid"

	// Per-question type tags. A generated question is either mcq or short;
	// "typing" and "hybrid" exist only at the config level.
	QuestionKindMCQ   QuestionType = "mcq"
	QuestionKindShort QuestionType = "short"
)

type Coverage string

const (
	CoverageKeyConcepts Coverage = "key_concepts"
	CoverageBroadSample Coverage = "broad_sample"
)

type Difficulty string

const (
	DifficultyLow    Difficulty = "low"
	DifficultyMedium Difficulty = "medium"
	DifficultyHigh   Difficulty = "high"
)

const (
	MinQuestionCount = 1
	MaxQuestionCount = 10
	MaxPromptLength  = 180
	MinOptions       = 3
	MaxOptions       = 5
)

// QuestionCounts splits a hybrid quiz between mcq and typing questions.
type QuestionCounts struct {
	MCQ    int `json:"mcq"`
	Typing int `json:"typing"`
}

// QuizConfig describes how a quiz should be generated. The hybrid-sum
// invariant is enforced at submission time, not just at rest.
type QuizConfig struct {
	QuestionType   QuestionType    `json:"question_type"`
	QuestionCount  int             `json:"question_count"`
	Coverage       Coverage        `json:"coverage"`
	Difficulty     Difficulty      `json:"difficulty"`
	QuestionCounts *QuestionCounts `json:"question_counts,omitempty"`
}

// DefaultQuizConfig is applied when the request carries no config.
func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		QuestionType:  QuestionTypeMCQ,
		QuestionCount: 5,
		Coverage:      CoverageKeyConcepts,
		Difficulty:    DifficultyMedium,
	}
}

// Normalize fills unset fields with defaults and validates the result.
func (c QuizConfig) Normalize() (QuizConfig, error) {
	def := DefaultQuizConfig()
	if c.QuestionType == "" {
		c.QuestionType = def.QuestionType
	}
	if c.QuestionCount == 0 {
		c.QuestionCount = def.QuestionCount
	}
	if c.Coverage == "" {
		c.Coverage = def.Coverage
	}
	if c.Difficulty == "" {
		c.Difficulty = def.Difficulty
	}
	if err := c.Validate(); err != nil {
		return QuizConfig{}, err
	}
	return c, nil
}

// Validate checks enum membership, count bounds and the hybrid-sum invariant.
func (c QuizConfig) Validate() error {
	switch c.QuestionType {
	case QuestionTypeMCQ, QuestionTypeTyping, QuestionTypeHybrid:
	default:
		return NewError(CodeConfigInvalid, fmt.Sprintf("unknown question_type %q", c.QuestionType), nil)
	}
	if c.QuestionCount < MinQuestionCount || c.QuestionCount > MaxQuestionCount {
		return NewError(CodeConfigInvalid,
			fmt.Sprintf("question_count must be between %d and %d", MinQuestionCount, MaxQuestionCount), nil)
	}
	switch c.Coverage {
	case CoverageKeyConcepts, CoverageBroadSample:
	default:
		return NewError(CodeConfigInvalid, fmt.Sprintf("unknown coverage %q", c.Coverage), nil)
	}
	switch c.Difficulty {
	case DifficultyLow, DifficultyMedium, DifficultyHigh:
	default:
		return NewError(CodeConfigInvalid, fmt.Sprintf("unknown difficulty %q", c.Difficulty), nil)
	}
	if c.QuestionType == QuestionTypeHybrid {
		if c.QuestionCounts == nil {
			return NewError(CodeConfigInvalid, "question_counts is required for hybrid quizzes", nil)
		}
		if c.QuestionCounts.MCQ+c.QuestionCounts.Typing != c.QuestionCount {
			return NewError(CodeConfigInvalid,
				fmt.Sprintf("question_counts must sum to question_count (%d+%d != %d)",
					c.QuestionCounts.MCQ, c.QuestionCounts.Typing, c.QuestionCount), nil)
		}
	} else if c.QuestionCounts != nil {
		return NewError(CodeConfigInvalid, "question_counts is only valid for hybrid quizzes", nil)
	}
	return nil
}

// Question is the tagged union of generated question kinds. MCQ questions
// carry Options and their Answer must literally equal one of them; short
// questions carry only the canonical Answer.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
	Answer  string       `json:"answer"`
}

// Validate checks one question against the schema constraints.
func (q Question) Validate(path string) []ErrorDetail {
	var issues []ErrorDetail
	if q.Prompt == "" {
		issues = append(issues, ErrorDetail{Path: path + ".prompt", Message: "is required"})
	} else if len([]rune(q.Prompt)) > MaxPromptLength {
		issues = append(issues, ErrorDetail{Path: path + ".prompt",
			Message: fmt.Sprintf("exceeds %d characters", MaxPromptLength)})
	}
	switch q.Type {
	case QuestionKindMCQ:
		if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
			issues = append(issues, ErrorDetail{Path: path + ".options",
				Message: fmt.Sprintf("must have %d to %d entries, got %d", MinOptions, MaxOptions, len(q.Options))})
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.Answer {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, ErrorDetail{Path: path + ".answer", Message: "must equal one of options"})
		}
	case QuestionKindShort:
		if q.Answer == "" {
			issues = append(issues, ErrorDetail{Path: path + ".answer", Message: "is required"})
		}
	default:
		issues = append(issues, ErrorDetail{Path: path + ".type", Message: fmt.Sprintf("unknown type %q", q.Type)})
	}
	return issues
}

// ValidateQuestions checks count bounds and each member of the set.
func ValidateQuestions(questions []Question) []ErrorDetail {
	if len(questions) < MinQuestionCount || len(questions) > MaxQuestionCount {
		return []ErrorDetail{{Path: "questions",
			Message: fmt.Sprintf("must contain %d to %d questions, got %d", MinQuestionCount, MaxQuestionCount, len(questions))}}
	}
	var issues []ErrorDetail
	for i, q := range questions {
		issues = append(issues, q.Validate(fmt.Sprintf("questions[%d]", i))...)
	}
	return issues
}

// Quiz is created once by the generation pipeline and immutable thereafter.
type Quiz struct {
	ID        string
	OwnerID   string
	ClassID   string // optional
	Title     string
	Subject   string
	Questions []Question
	Config    QuizConfig
	CreatedAt time.Time
}
