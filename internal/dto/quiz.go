package dto

import "notequiz/internal/domain"

// GenerateQuizRequest is the quiz-creation request body.
// @Description Request body for generating a quiz from notes
type GenerateQuizRequest struct {
	ClassID   string             `json:"class_id,omitempty"`
	NotesText string             `json:"notes_text"`
	Config    *domain.QuizConfig `json:"config,omitempty"`
}

// DebugTimings is populated only when the caller opts into debug timing.
type DebugTimings struct {
	ValidationMS  int64 `json:"validation_ms"`
	PromptBuildMS int64 `json:"prompt_build_ms"`
	OpenAIMS      int64 `json:"openai_ms"`
	DBInsertMS    int64 `json:"db_insert_ms"`
	OverheadMS    int64 `json:"overhead_ms"`
	TotalMS       int64 `json:"total_ms"`
}

// DebugInfo carries timing and router attribution for a generation call.
type DebugInfo struct {
	Timings           DebugTimings `json:"timings"`
	ModelUsed         string       `json:"model_used"`
	FallbackTriggered bool         `json:"fallback_triggered"`
	TokensTotal       int          `json:"tokens_total"`
}

// GenerateQuizResponse is returned on successful generation. The actual
// question count may be smaller than requested; that is not an error.
type GenerateQuizResponse struct {
	QuizID              string            `json:"quiz_id"`
	Config              domain.QuizConfig `json:"config"`
	ActualQuestionCount int               `json:"actual_question_count"`
	Debug               *DebugInfo        `json:"debug,omitempty"`
}

// GradeRequest covers both grading flows: attempt_id resumes an in-progress
// attempt, quiz_id grades instantly in demo mode. At least one is required.
type GradeRequest struct {
	QuizID    string            `json:"quiz_id,omitempty"`
	AttemptID string            `json:"attempt_id,omitempty"`
	Responses map[string]string `json:"responses"`
}

// GradeResponse returns the score on a 0-100 scale; the persisted score is
// a 0..1 fraction.
type GradeResponse struct {
	AttemptID string                 `json:"attempt_id"`
	Score     int                    `json:"score"`
	Letter    string                 `json:"letter"`
	Summary   string                 `json:"summary"`
	Breakdown []domain.QuestionGrade `json:"breakdown"`
}

// StartAttemptRequest begins an in-progress attempt for a quiz.
type StartAttemptRequest struct {
	QuizID string `json:"quiz_id"`
}

// StartAttemptResponse returns the new attempt id.
type StartAttemptResponse struct {
	AttemptID string `json:"attempt_id"`
	QuizID    string `json:"quiz_id"`
	StartedAt string `json:"started_at"`
}

// QuizResponse is the read-side view of an owned quiz.
type QuizResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Subject   string            `json:"subject"`
	ClassID   string            `json:"class_id,omitempty"`
	Questions []domain.Question `json:"questions"`
	Config    domain.QuizConfig `json:"config"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Status  int                  `json:"status"`
	Details []domain.ErrorDetail `json:"details,omitempty"`
}
