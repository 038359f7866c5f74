package repository

import (
	"context"
	"database/sql"
	"fmt"

	"notequiz/internal/domain"
	"notequiz/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

// GetUserByID fetches a user's tier-bearing row; returns (nil, nil) when no
// row exists.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ID, EMAIL, TIER, CREATED_AT FROM users WHERE id = :1`

	var m models.User
	row := r.db.QueryRowContext(ctx, query, id)
	err := row.Scan(&m.ID, &m.Email, &m.Tier, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Tier:      domain.UserTier(m.Tier),
		CreatedAt: m.CreatedAt,
	}, nil
}

// sqlxClassRepository implements domain.ClassRepository using sqlx.
type sqlxClassRepository struct {
	db *sqlx.DB
}

// NewSQLXClassRepository creates a new instance of sqlxClassRepository.
func NewSQLXClassRepository(db *sqlx.DB) domain.ClassRepository {
	return &sqlxClassRepository{db: db}
}

// GetClassByID resolves a class reference; returns (nil, nil) when no row
// exists.
func (r *sqlxClassRepository) GetClassByID(ctx context.Context, id string) (*domain.Class, error) {
	query := `SELECT ID, OWNER_ID, NAME FROM classes WHERE id = :1`

	var m models.Class
	row := r.db.QueryRowContext(ctx, query, id)
	err := row.Scan(&m.ID, &m.OwnerID, &m.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class %s: %w", id, err)
	}
	return &domain.Class{ID: m.ID, OwnerID: m.OwnerID, Name: m.Name}, nil
}
