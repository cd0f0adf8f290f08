package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type TeamRepository struct {
	db *database.DB
}

func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = "id, name, owner_id, created_at, updated_at"

func (r *TeamRepository) Create(ctx context.Context, name string, ownerID int64) (*domain.Team, error) {
	conn := r.db.Conn(ctx)

	var team domain.Team
	err := conn.QueryRowContext(ctx,
		"INSERT INTO teams (name, owner_id) VALUES ($1, $2) RETURNING "+teamColumns,
		name, ownerID,
	).Scan(&team.ID, &team.Name, &team.OwnerID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert team: %w", err)
	}

	return &team, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (*domain.Team, error) {
	conn := r.db.Conn(ctx)

	var team domain.Team
	err := conn.QueryRowContext(ctx,
		"SELECT "+teamColumns+" FROM teams WHERE id = $1 AND deleted_at IS NULL",
		teamID,
	).Scan(&team.ID, &team.Name, &team.OwnerID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &team, nil
}

func (r *TeamRepository) UpdateName(ctx context.Context, teamID int64, name string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE teams SET name = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL",
		name, teamID,
	)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TeamRepository) SoftDelete(ctx context.Context, teamID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE teams SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL",
		teamID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TeamRepository) ListByUserID(ctx context.Context, userID int64) ([]domain.Team, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.owner_id, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = $1 AND t.deleted_at IS NULL
		ORDER BY t.created_at DESC
		`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.OwnerID, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}
