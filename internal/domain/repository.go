package domain

import (
	"context"
	"time"
)

// QuizRepository persists quizzes. CountByOwner backs the free-tier quota
// check; the check-then-insert sequence is deliberately not atomic.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *Quiz) error
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// AttemptRepository persists quiz attempts. UpdateSubmitted is a single
// conditional write keyed by (attempt id, owner id); it reports whether a
// row was actually updated.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *QuizAttempt) error
	GetAttemptByID(ctx context.Context, id string) (*QuizAttempt, error)
	UpdateSubmitted(ctx context.Context, attemptID, ownerID string, update *AttemptUpdate) (bool, error)
}

// UserRepository exposes the single read this core needs.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// ClassRepository resolves class references for ownership checks.
type ClassRepository interface {
	GetClassByID(ctx context.Context, id string) (*Class, error)
}

// QuizEvent is one analytics row. Payload is an opaque JSON document
// carrying metrics, config and breakdowns; always safe to persist.
type QuizEvent struct {
	ID        string
	EventType string
	UserID    string
	QuizID    string
	AttemptID string
	Payload   map[string]any
	CreatedAt time.Time
}

// AnalyticsRepository persists analytics events.
type AnalyticsRepository interface {
	InsertEvent(ctx context.Context, event *QuizEvent) error
}

// AnalyticsRecorder records analytics fire-and-forget: implementations must
// never let a recording failure reach the caller.
type AnalyticsRecorder interface {
	Record(event *QuizEvent)
}
