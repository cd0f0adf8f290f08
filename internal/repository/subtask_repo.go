package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type SubtaskRepository struct {
	db *database.DB
}

func NewSubtaskRepository(db *database.DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

const subtaskColumns = "id, issue_id, title, is_done, position, assignee_id, created_at, updated_at"

func (r *SubtaskRepository) Create(ctx context.Context, st domain.Subtask) (*domain.Subtask, error) {
	conn := r.db.Conn(ctx)

	var out domain.Subtask
	err := conn.QueryRowContext(ctx,
		`INSERT INTO issue_subtasks (issue_id, title, is_done, position, assignee_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+subtaskColumns,
		st.IssueID, st.Title, st.IsDone, st.Position, st.AssigneeID,
	).Scan(&out.ID, &out.IssueID, &out.Title, &out.IsDone, &out.Position, &out.AssigneeID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert subtask: %w", err)
	}

	return &out, nil
}

func (r *SubtaskRepository) GetByID(ctx context.Context, subtaskID, issueID int64) (*domain.Subtask, error) {
	conn := r.db.Conn(ctx)

	var st domain.Subtask
	err := conn.QueryRowContext(ctx,
		"SELECT "+subtaskColumns+" FROM issue_subtasks WHERE id = $1 AND issue_id = $2",
		subtaskID, issueID,
	).Scan(&st.ID, &st.IssueID, &st.Title, &st.IsDone, &st.Position, &st.AssigneeID, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &st, nil
}

func (r *SubtaskRepository) Update(ctx context.Context, st domain.Subtask) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		`UPDATE issue_subtasks
		 SET title = $1, is_done = $2, assignee_id = $3, updated_at = now()
		 WHERE id = $4`,
		st.Title, st.IsDone, st.AssigneeID, st.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subtask: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, subtaskID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM issue_subtasks WHERE id = $1", subtaskID)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SubtaskRepository) NextPosition(ctx context.Context, issueID int64) (int, error) {
	conn := r.db.Conn(ctx)

	var next int
	err := conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM issue_subtasks WHERE issue_id = $1",
		issueID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next subtask position: %w", err)
	}
	return next, nil
}

// CloseGap keeps the issue's subtask positions dense after a delete.
func (r *SubtaskRepository) CloseGap(ctx context.Context, issueID int64, vacatedPosition int) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`UPDATE issue_subtasks SET position = position - 1, updated_at = now()
		 WHERE issue_id = $1 AND position > $2`,
		issueID, vacatedPosition,
	)
	if err != nil {
		return fmt.Errorf("failed to close subtask gap: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) SetPosition(ctx context.Context, subtaskID int64, position int) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE issue_subtasks SET position = $1, updated_at = now() WHERE id = $2",
		position, subtaskID,
	)
	if err != nil {
		return fmt.Errorf("failed to set subtask position: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SubtaskRepository) ListByIssueForUpdate(ctx context.Context, issueID int64) ([]domain.Subtask, error) {
	return r.listByIssue(ctx, issueID, true)
}

func (r *SubtaskRepository) ListByIssue(ctx context.Context, issueID int64) ([]domain.Subtask, error) {
	return r.listByIssue(ctx, issueID, false)
}

func (r *SubtaskRepository) listByIssue(ctx context.Context, issueID int64, forUpdate bool) ([]domain.Subtask, error) {
	conn := r.db.Conn(ctx)

	query := "SELECT " + subtaskColumns + ` FROM issue_subtasks
		WHERE issue_id = $1
		ORDER BY position, id`
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := conn.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []domain.Subtask
	for rows.Next() {
		var st domain.Subtask
		if err := rows.Scan(&st.ID, &st.IssueID, &st.Title, &st.IsDone, &st.Position, &st.AssigneeID, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		subtasks = append(subtasks, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subtasks: %w", err)
	}

	return subtasks, nil
}
