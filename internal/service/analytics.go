package service

import (
	"context"
	"time"

	"notequiz/internal/domain"
	"notequiz/internal/logger"

	"go.uber.org/zap"
)

// Analytics event types.
const (
	EventQuizGenerated        = "quiz_generated"
	EventQuizGenerationFailed = "quiz_generation_failed"
	EventQuizGraded           = "quiz_graded"
)

const analyticsWriteTimeout = 5 * time.Second

// asyncAnalyticsRecorder persists events on detached goroutines. Failures
// are logged and swallowed; a recording failure must never affect or delay
// the result returned to the caller.
type asyncAnalyticsRecorder struct {
	repo domain.AnalyticsRepository
}

// NewAsyncAnalyticsRecorder creates a fire-and-forget recorder over the
// analytics repository.
func NewAsyncAnalyticsRecorder(repo domain.AnalyticsRepository) domain.AnalyticsRecorder {
	return &asyncAnalyticsRecorder{repo: repo}
}

// Record detaches the write from the calling request. The background
// context is deliberate: the event must outlive the request's own context.
func (r *asyncAnalyticsRecorder) Record(event *domain.QuizEvent) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Get().Error("Analytics recorder panicked",
					zap.Any("panic", rec),
					zap.String("event_type", event.EventType))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), analyticsWriteTimeout)
		defer cancel()

		if err := r.repo.InsertEvent(ctx, event); err != nil {
			logger.Get().Error("Failed to record analytics event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
				zap.String("event_id", event.ID))
		}
	}()
}
