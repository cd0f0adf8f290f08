package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

// ActivityRepository is append-only: entries are never updated or
// deleted. Append must run inside the same transaction as the mutation
// it records so a rollback takes the log entry with it.
type ActivityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, entry domain.ActivityLog) error {
	conn := r.db.Conn(ctx)

	metadata := entry.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	_, err := conn.ExecContext(ctx,
		`INSERT INTO team_activity_logs (team_id, actor_id, action_type, target_id, target_type, message, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.TeamID, entry.ActorID, entry.ActionType, entry.TargetID, entry.TargetType, entry.Message, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByTeam(ctx context.Context, teamID int64, limit int) ([]domain.ActivityLog, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, team_id, actor_id, action_type, target_id, target_type, message, metadata, created_at
		FROM team_activity_logs
		WHERE team_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ActivityLog
	for rows.Next() {
		var l domain.ActivityLog
		if err := rows.Scan(&l.ID, &l.TeamID, &l.ActorID, &l.ActionType, &l.TargetID, &l.TargetType, &l.Message, &l.Metadata, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity logs: %w", err)
	}

	return logs, nil
}
