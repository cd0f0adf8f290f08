package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type ProjectRepository struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = "id, team_id, owner_id, name, description, is_archived, created_at, updated_at"

func (r *ProjectRepository) Create(ctx context.Context, teamID, ownerID int64, name, description string) (*domain.Project, error) {
	conn := r.db.Conn(ctx)

	var p domain.Project
	err := conn.QueryRowContext(ctx,
		`INSERT INTO projects (team_id, owner_id, name, description)
		 VALUES ($1, $2, $3, $4) RETURNING `+projectColumns,
		teamID, ownerID, name, description,
	).Scan(&p.ID, &p.TeamID, &p.OwnerID, &p.Name, &p.Description, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	return &p, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID int64) (*domain.Project, error) {
	conn := r.db.Conn(ctx)

	var p domain.Project
	err := conn.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = $1 AND deleted_at IS NULL",
		projectID,
	).Scan(&p.ID, &p.TeamID, &p.OwnerID, &p.Name, &p.Description, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &p, nil
}

func (r *ProjectRepository) Update(ctx context.Context, projectID int64, name, description string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		`UPDATE projects SET name = $1, description = $2, updated_at = now()
		 WHERE id = $3 AND deleted_at IS NULL`,
		name, description, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) SetArchived(ctx context.Context, projectID int64, archived bool) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		`UPDATE projects SET is_archived = $1, updated_at = now()
		 WHERE id = $2 AND deleted_at IS NULL`,
		archived, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) SoftDelete(ctx context.Context, projectID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE projects SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL",
		projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) ListByTeam(ctx context.Context, teamID int64) ([]domain.Project, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT "+projectColumns+` FROM projects
		WHERE team_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT p.id, p.team_id, p.owner_id, p.name, p.description, p.is_archived, p.created_at, p.updated_at
		FROM projects p
		JOIN team_members tm ON tm.team_id = p.team_id
		WHERE tm.user_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

func scanProjects(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Project, error) {
	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.TeamID, &p.OwnerID, &p.Name, &p.Description, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}
