package domain

import "time"

// AttemptStatus is monotonic: in_progress -> submitted, never back.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// QuestionGrade is the per-question breakdown produced by the rubric.
type QuestionGrade struct {
	QuestionID string       `json:"question_id"`
	Type       QuestionType `json:"type"`
	Correct    bool         `json:"correct"`
	Expected   string       `json:"expected"`
	Submitted  string       `json:"submitted"`
}

// QuizAttempt is one user's submission of answers to a quiz. Created either
// by the start-attempt collaborator (in_progress) or on the fly in demo
// grading (already submitted); mutated exactly once by grading.
type QuizAttempt struct {
	ID           string
	QuizID       string
	OwnerID      string
	Status       AttemptStatus
	Responses    map[string]string
	Score        float64 // fraction 0..1
	Grading      []QuestionGrade
	StartedAt    time.Time
	SubmittedAt  time.Time
	DurationMS   int64
	GradingModel string
	Metrics      RouterMetrics
}

// AttemptUpdate is what grading writes back, scoped by (attempt, owner).
type AttemptUpdate struct {
	Responses    map[string]string
	Score        float64
	Grading      []QuestionGrade
	SubmittedAt  time.Time
	DurationMS   int64
	GradingModel string
	Metrics      RouterMetrics
}
