package repository

import (
	"context"
	"fmt"
	"time"

	"notequiz/internal/domain"
	"notequiz/internal/repository/models"
	"notequiz/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxAnalyticsRepository implements domain.AnalyticsRepository using sqlx.
type sqlxAnalyticsRepository struct {
	db *sqlx.DB
}

// NewSQLXAnalyticsRepository creates a new instance of sqlxAnalyticsRepository.
func NewSQLXAnalyticsRepository(db *sqlx.DB) domain.AnalyticsRepository {
	return &sqlxAnalyticsRepository{db: db}
}

// InsertEvent appends one analytics row. Callers treat failures as
// log-only; nothing here is ever surfaced to a user.
func (r *sqlxAnalyticsRepository) InsertEvent(ctx context.Context, event *domain.QuizEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	payload, err := models.PayloadMap(event.Payload).Value()
	if err != nil {
		return fmt.Errorf("failed to serialize event payload: %w", err)
	}

	query := `INSERT INTO quiz_events (ID, EVENT_TYPE, USER_ID, QUIZ_ID, ATTEMPT_ID, PAYLOAD, CREATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7)`

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.UserID,
		util.StringToNullString(event.QuizID),
		util.StringToNullString(event.AttemptID),
		payload,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quiz event: %w", err)
	}
	return nil
}
