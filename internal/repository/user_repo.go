package repository

import (
	"context"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

// UserRepository reads the user records owned by the identity layer.
// This service never writes them.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	conn := r.db.Conn(ctx)

	var u domain.User
	err := conn.QueryRowContext(ctx,
		"SELECT id, email, name, created_at FROM users WHERE id = $1",
		userID,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	conn := r.db.Conn(ctx)

	var u domain.User
	err := conn.QueryRowContext(ctx,
		"SELECT id, email, name, created_at FROM users WHERE lower(email) = lower($1)",
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &u, nil
}
