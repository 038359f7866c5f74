package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"notequiz/internal/domain"
	"notequiz/internal/repository/models"
	"notequiz/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

func toDomainAttempt(m *models.QuizAttempt) *domain.QuizAttempt {
	if m == nil {
		return nil
	}
	a := &domain.QuizAttempt{
		ID:           m.ID,
		QuizID:       m.QuizID,
		OwnerID:      m.OwnerID,
		Status:       domain.AttemptStatus(m.Status),
		Responses:    m.Responses,
		Score:        m.Score.Float64,
		Grading:      m.Grading,
		StartedAt:    m.StartedAt,
		DurationMS:   m.DurationMS.Int64,
		GradingModel: m.GradingModel.String,
		Metrics:      domain.RouterMetrics(m.Metrics),
	}
	if m.SubmittedAt.Valid {
		a.SubmittedAt = m.SubmittedAt.Time
	}
	return a
}

// CreateAttempt inserts a new attempt row. Both the start-attempt flow
// (in_progress) and demo grading (already submitted) go through here.
func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now()
	}

	responses, err := models.StringMap(attempt.Responses).Value()
	if err != nil {
		return fmt.Errorf("failed to serialize responses: %w", err)
	}
	grading, err := models.GradeSlice(attempt.Grading).Value()
	if err != nil {
		return fmt.Errorf("failed to serialize grading: %w", err)
	}
	metrics, err := models.MetricsBlob(attempt.Metrics).Value()
	if err != nil {
		return fmt.Errorf("failed to serialize metrics: %w", err)
	}

	query := `INSERT INTO quiz_attempts (ID, QUIZ_ID, OWNER_ID, STATUS, RESPONSES, SCORE, GRADING, STARTED_AT, SUBMITTED_AT, DURATION_MS, GRADING_MODEL, METRICS)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12)`

	_, err = r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.QuizID,
		attempt.OwnerID,
		string(attempt.Status),
		responses,
		sql.NullFloat64{Float64: attempt.Score, Valid: attempt.Status == domain.AttemptSubmitted},
		grading,
		attempt.StartedAt,
		util.TimeToNullTime(attempt.SubmittedAt),
		sql.NullInt64{Int64: attempt.DurationMS, Valid: attempt.DurationMS > 0},
		util.StringToNullString(attempt.GradingModel),
		metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}
	return nil
}

// GetAttemptByID fetches one attempt; returns (nil, nil) when no row exists.
func (r *sqlxAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.QuizAttempt, error) {
	query := `SELECT ID, QUIZ_ID, OWNER_ID, STATUS, RESPONSES, SCORE, GRADING, STARTED_AT, SUBMITTED_AT, DURATION_MS, GRADING_MODEL, METRICS
	          FROM quiz_attempts WHERE id = :1`

	var m models.QuizAttempt
	row := r.db.QueryRowContext(ctx, query, id)
	err := row.Scan(&m.ID, &m.QuizID, &m.OwnerID, &m.Status, &m.Responses, &m.Score,
		&m.Grading, &m.StartedAt, &m.SubmittedAt, &m.DurationMS, &m.GradingModel, &m.Metrics)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt %s: %w", id, err)
	}
	return toDomainAttempt(&m), nil
}

// UpdateSubmitted performs the single conditional write of grading: the row
// must match both the attempt id and the owner id, which defends against
// cross-user writes at the storage layer.
func (r *sqlxAttemptRepository) UpdateSubmitted(ctx context.Context, attemptID, ownerID string, update *domain.AttemptUpdate) (bool, error) {
	responses, err := models.StringMap(update.Responses).Value()
	if err != nil {
		return false, fmt.Errorf("failed to serialize responses: %w", err)
	}
	grading, err := models.GradeSlice(update.Grading).Value()
	if err != nil {
		return false, fmt.Errorf("failed to serialize grading: %w", err)
	}
	metrics, err := models.MetricsBlob(update.Metrics).Value()
	if err != nil {
		return false, fmt.Errorf("failed to serialize metrics: %w", err)
	}

	query := `UPDATE quiz_attempts
	          SET status = :1, responses = :2, score = :3, grading = :4, submitted_at = :5, duration_ms = :6, grading_model = :7, metrics = :8
	          WHERE id = :9 AND owner_id = :10`

	res, err := r.db.ExecContext(ctx, query,
		string(domain.AttemptSubmitted),
		responses,
		update.Score,
		grading,
		update.SubmittedAt,
		update.DurationMS,
		update.GradingModel,
		metrics,
		attemptID,
		ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update attempt %s: %w", attemptID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for attempt %s: %w", attemptID, err)
	}
	return affected > 0, nil
}
