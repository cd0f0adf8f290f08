package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type FavoriteRepository struct {
	db *database.DB
}

func NewFavoriteRepository(db *database.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add is idempotent: the composite primary key plus ON CONFLICT DO
// NOTHING leaves a repeated add as a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, userID, projectID int64) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`INSERT INTO favorite_projects (user_id, project_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, project_id) DO NOTHING`,
		userID, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove is a no-op when the pair is not favorited.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, projectID int64) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		"DELETE FROM favorite_projects WHERE user_id = $1 AND project_id = $2",
		userID, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Is(ctx context.Context, userID, projectID int64) (bool, error) {
	conn := r.db.Conn(ctx)

	var exists bool
	err := conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM favorite_projects WHERE user_id = $1 AND project_id = $2)",
		userID, projectID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

func (r *FavoriteRepository) ListProjects(ctx context.Context, userID int64) ([]domain.Project, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT p.id, p.team_id, p.owner_id, p.name, p.description, p.is_archived, p.created_at, p.updated_at
		FROM favorite_projects fp
		JOIN projects p ON p.id = fp.project_id
		WHERE fp.user_id = $1 AND p.deleted_at IS NULL
		ORDER BY fp.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}
