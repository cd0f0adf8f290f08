package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type HistoryRepository struct {
	db *database.DB
}

func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, h domain.IssueHistory) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`INSERT INTO issue_history (issue_id, actor_id, field, old_value, new_value)
		 VALUES ($1, $2, $3, $4, $5)`,
		h.IssueID, h.ActorID, h.Field, h.OldValue, h.NewValue,
	)
	if err != nil {
		return fmt.Errorf("failed to append issue history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByIssue(ctx context.Context, issueID int64, limit int) ([]domain.IssueHistory, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, issue_id, actor_id, field, old_value, new_value, created_at
		FROM issue_history
		WHERE issue_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, issueID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue history: %w", err)
	}
	defer rows.Close()

	var entries []domain.IssueHistory
	for rows.Next() {
		var h domain.IssueHistory
		if err := rows.Scan(&h.ID, &h.IssueID, &h.ActorID, &h.Field, &h.OldValue, &h.NewValue, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue history: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issue history: %w", err)
	}

	return entries, nil
}
