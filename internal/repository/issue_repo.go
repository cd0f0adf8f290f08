package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type IssueRepository struct {
	db *database.DB
}

func NewIssueRepository(db *database.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

const issueColumns = "id, project_id, status_id, title, description, owner_id, assignee_id, due_date, priority, position, created_at, updated_at"

func scanIssue(row interface{ Scan(dest ...any) error }) (*domain.Issue, error) {
	var i domain.Issue
	err := row.Scan(&i.ID, &i.ProjectID, &i.StatusID, &i.Title, &i.Description, &i.OwnerID,
		&i.AssigneeID, &i.DueDate, &i.Priority, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}
	return &i, nil
}

func (r *IssueRepository) Create(ctx context.Context, issue domain.Issue) (*domain.Issue, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx,
		`INSERT INTO issues (project_id, status_id, title, description, owner_id, assignee_id, due_date, priority, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+issueColumns,
		issue.ProjectID, issue.StatusID, issue.Title, issue.Description, issue.OwnerID,
		issue.AssigneeID, issue.DueDate, issue.Priority, issue.Position,
	)
	out, err := scanIssue(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert issue: %w", err)
	}
	return out, nil
}

func (r *IssueRepository) GetByID(ctx context.Context, issueID int64) (*domain.Issue, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE id = $1 AND deleted_at IS NULL",
		issueID,
	)
	return scanIssue(row)
}

func (r *IssueRepository) Update(ctx context.Context, issue domain.Issue) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		`UPDATE issues
		 SET title = $1, description = $2, assignee_id = $3, due_date = $4, priority = $5, updated_at = now()
		 WHERE id = $6 AND deleted_at IS NULL`,
		issue.Title, issue.Description, issue.AssigneeID, issue.DueDate, issue.Priority, issue.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *IssueRepository) SoftDelete(ctx context.Context, issueID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE issues SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL",
		issueID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus counts live issues in a status, optionally excluding one
// issue (the one being moved out of or within the column).
func (r *IssueRepository) CountByStatus(ctx context.Context, statusID, excludeIssueID int64) (int, error) {
	conn := r.db.Conn(ctx)

	var count int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM issues WHERE status_id = $1 AND id <> $2 AND deleted_at IS NULL",
		statusID, excludeIssueID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

func (r *IssueRepository) NextPosition(ctx context.Context, statusID int64) (int, error) {
	conn := r.db.Conn(ctx)

	var next int
	err := conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM issues WHERE status_id = $1 AND deleted_at IS NULL",
		statusID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next issue position: %w", err)
	}
	return next, nil
}

// CloseGap decrements positions above the vacated slot so the source
// column stays dense after an issue leaves it.
func (r *IssueRepository) CloseGap(ctx context.Context, statusID int64, vacatedPosition int) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`UPDATE issues SET position = position - 1, updated_at = now()
		 WHERE status_id = $1 AND position > $2 AND deleted_at IS NULL`,
		statusID, vacatedPosition,
	)
	if err != nil {
		return fmt.Errorf("failed to close position gap: %w", err)
	}
	return nil
}

// OpenSlot increments positions at and above the insertion point so the
// target column has a free slot at position.
func (r *IssueRepository) OpenSlot(ctx context.Context, statusID int64, position int) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`UPDATE issues SET position = position + 1, updated_at = now()
		 WHERE status_id = $1 AND position >= $2 AND deleted_at IS NULL`,
		statusID, position,
	)
	if err != nil {
		return fmt.Errorf("failed to open position slot: %w", err)
	}
	return nil
}

func (r *IssueRepository) SetStatusAndPosition(ctx context.Context, issueID, statusID int64, position int) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		`UPDATE issues SET status_id = $1, position = $2, updated_at = now()
		 WHERE id = $3 AND deleted_at IS NULL`,
		statusID, position, issueID,
	)
	if err != nil {
		return fmt.Errorf("failed to move issue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReassignStatus moves every live issue of fromStatus to toStatus,
// appending them after the target's current tail in their former order.
func (r *IssueRepository) ReassignStatus(ctx context.Context, fromStatusID, toStatusID int64) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY position, id) - 1 AS rn
			FROM issues WHERE status_id = $1 AND deleted_at IS NULL
		), tail AS (
			SELECT COALESCE(MAX(position), -1) AS max_pos
			FROM issues WHERE status_id = $2 AND deleted_at IS NULL
		)
		UPDATE issues i
		SET status_id = $2, position = tail.max_pos + 1 + ranked.rn, updated_at = now()
		FROM ranked, tail
		WHERE i.id = ranked.id`,
		fromStatusID, toStatusID,
	)
	if err != nil {
		return fmt.Errorf("failed to reassign issues: %w", err)
	}
	return nil
}

func (r *IssueRepository) ListByStatus(ctx context.Context, statusID int64) ([]domain.Issue, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT "+issueColumns+` FROM issues
		WHERE status_id = $1 AND deleted_at IS NULL
		ORDER BY position, id`, statusID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	return scanIssues(rows)
}

func (r *IssueRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.Issue, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT `+issueColumns+` FROM issues
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY status_id, position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	return scanIssues(rows)
}

func scanIssues(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Issue, error) {
	var issues []domain.Issue
	for rows.Next() {
		var i domain.Issue
		if err := rows.Scan(&i.ID, &i.ProjectID, &i.StatusID, &i.Title, &i.Description, &i.OwnerID,
			&i.AssigneeID, &i.DueDate, &i.Priority, &i.Position, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}
	return issues, nil
}
