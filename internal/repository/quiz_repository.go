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

// sqlxQuizRepository implements domain.QuizRepository using sqlx.
type sqlxQuizRepository struct {
	db *sqlx.DB
}

// NewSQLXQuizRepository creates a new instance of sqlxQuizRepository.
func NewSQLXQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &sqlxQuizRepository{db: db}
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	return &domain.Quiz{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		ClassID:   m.ClassID.String,
		Title:     m.Title,
		Subject:   m.Subject,
		Questions: m.Questions,
		Config:    domain.QuizConfig(m.Config),
		CreatedAt: m.CreatedAt,
	}
}

func fromDomainQuiz(q *domain.Quiz) *models.Quiz {
	return &models.Quiz{
		ID:        q.ID,
		OwnerID:   q.OwnerID,
		ClassID:   util.StringToNullString(q.ClassID),
		Title:     q.Title,
		Subject:   q.Subject,
		Questions: q.Questions,
		Config:    models.ConfigBlob(q.Config),
		CreatedAt: q.CreatedAt,
	}
}

// CreateQuiz inserts a new quiz row.
func (r *sqlxQuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	m := fromDomainQuiz(quiz)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	questions, err := m.Questions.Value()
	if err != nil {
		return fmt.Errorf("failed to serialize questions: %w", err)
	}
	cfg, err := m.Config.Value()
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	query := `INSERT INTO quizzes (ID, OWNER_ID, CLASS_ID, TITLE, SUBJECT, QUESTIONS, CONFIG, CREATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8)`

	_, err = r.db.ExecContext(ctx, query,
		m.ID,
		m.OwnerID,
		m.ClassID,
		m.Title,
		m.Subject,
		questions,
		cfg,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetQuizByID fetches one quiz; returns (nil, nil) when no row exists.
func (r *sqlxQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	query := `SELECT ID, OWNER_ID, CLASS_ID, TITLE, SUBJECT, QUESTIONS, CONFIG, CREATED_AT
	          FROM quizzes WHERE id = :1`

	var m models.Quiz
	row := r.db.QueryRowContext(ctx, query, id)
	err := row.Scan(&m.ID, &m.OwnerID, &m.ClassID, &m.Title, &m.Subject, &m.Questions, &m.Config, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz %s: %w", id, err)
	}
	return toDomainQuiz(&m), nil
}

// CountByOwner counts a user's quizzes for the quota check.
func (r *sqlxQuizRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM quizzes WHERE owner_id = :1`
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count quizzes for owner %s: %w", ownerID, err)
	}
	return count, nil
}
