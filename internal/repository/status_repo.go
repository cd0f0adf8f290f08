package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type StatusRepository struct {
	db *database.DB
}

func NewStatusRepository(db *database.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

const statusColumns = "id, project_id, name, color, position, is_default, wip_limit, created_at, updated_at"

func scanStatus(row interface{ Scan(dest ...any) error }) (*domain.IssueStatus, error) {
	var s domain.IssueStatus
	err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Color, &s.Position, &s.IsDefault, &s.WipLimit, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}
	return &s, nil
}

func (r *StatusRepository) Create(ctx context.Context, s domain.IssueStatus) (*domain.IssueStatus, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx,
		`INSERT INTO issue_statuses (project_id, name, color, position, is_default, wip_limit)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+statusColumns,
		s.ProjectID, s.Name, s.Color, s.Position, s.IsDefault, s.WipLimit,
	)
	out, err := scanStatus(row)
	if err != nil {
		if IsUniqueViolation(err, "issue_statuses_project_id_name_key") {
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to insert status: %w", err)
	}
	return out, nil
}

func (r *StatusRepository) GetByID(ctx context.Context, statusID int64) (*domain.IssueStatus, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx,
		"SELECT "+statusColumns+" FROM issue_statuses WHERE id = $1 AND deleted_at IS NULL",
		statusID,
	)
	return scanStatus(row)
}

// GetForUpdate locks the status row for the rest of the transaction.
// Position-mutating paths take this lock first so concurrent moves into
// or within the same column serialize.
func (r *StatusRepository) GetForUpdate(ctx context.Context, statusID int64) (*domain.IssueStatus, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx,
		"SELECT "+statusColumns+" FROM issue_statuses WHERE id = $1 AND deleted_at IS NULL FOR UPDATE",
		statusID,
	)
	return scanStatus(row)
}

func (r *StatusRepository) GetDefault(ctx context.Context, projectID int64) (*domain.IssueStatus, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx,
		"SELECT "+statusColumns+" FROM issue_statuses WHERE project_id = $1 AND is_default AND deleted_at IS NULL",
		projectID,
	)
	return scanStatus(row)
}

func (r *StatusRepository) NameExists(ctx context.Context, projectID int64, name string, excludeID int64) (bool, error) {
	conn := r.db.Conn(ctx)

	var exists bool
	err := conn.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM issue_statuses
			WHERE project_id = $1 AND lower(name) = lower($2) AND id <> $3 AND deleted_at IS NULL
		)`, projectID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check status name: %w", err)
	}
	return exists, nil
}

func (r *StatusRepository) NextPosition(ctx context.Context, projectID int64) (int, error) {
	conn := r.db.Conn(ctx)

	var next int
	err := conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM issue_statuses WHERE project_id = $1 AND deleted_at IS NULL",
		projectID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next status position: %w", err)
	}
	return next, nil
}

// UnsetDefaults clears is_default on every status of the project except
// keepID, preserving the single-default invariant.
func (r *StatusRepository) UnsetDefaults(ctx context.Context, projectID, keepID int64) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`UPDATE issue_statuses SET is_default = false, updated_at = now()
		 WHERE project_id = $1 AND id <> $2 AND is_default AND deleted_at IS NULL`,
		projectID, keepID,
	)
	if err != nil {
		return fmt.Errorf("failed to unset default statuses: %w", err)
	}
	return nil
}

func (r *StatusRepository) Update(ctx context.Context, s domain.IssueStatus) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		`UPDATE issue_statuses
		 SET name = $1, color = $2, is_default = $3, wip_limit = $4, updated_at = now()
		 WHERE id = $5 AND deleted_at IS NULL`,
		s.Name, s.Color, s.IsDefault, s.WipLimit, s.ID,
	)
	if err != nil {
		if IsUniqueViolation(err, "issue_statuses_project_id_name_key") {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StatusRepository) SoftDelete(ctx context.Context, statusID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE issue_statuses SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL",
		statusID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StatusRepository) SetPosition(ctx context.Context, statusID int64, position int) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE issue_statuses SET position = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL",
		position, statusID,
	)
	if err != nil {
		return fmt.Errorf("failed to set status position: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByProjectForUpdate locks all of the project's status rows; reorders
// take it so two concurrent permutation writes serialize.
func (r *StatusRepository) ListByProjectForUpdate(ctx context.Context, projectID int64) ([]domain.IssueStatus, error) {
	return r.listByProject(ctx, projectID, true)
}

func (r *StatusRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.IssueStatus, error) {
	return r.listByProject(ctx, projectID, false)
}

func (r *StatusRepository) listByProject(ctx context.Context, projectID int64, forUpdate bool) ([]domain.IssueStatus, error) {
	conn := r.db.Conn(ctx)

	query := "SELECT " + statusColumns + ` FROM issue_statuses
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY position, id`
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := conn.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.IssueStatus
	for rows.Next() {
		var s domain.IssueStatus
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Color, &s.Position, &s.IsDefault, &s.WipLimit, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statuses: %w", err)
	}

	return statuses, nil
}

// CountsByStatus returns live (non-deleted) issue counts per status for a
// project, for the board listing.
func (r *StatusRepository) CountsByStatus(ctx context.Context, projectID int64) (map[int64]int, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT status_id, COUNT(*) FROM issues
		WHERE project_id = $1 AND deleted_at IS NULL
		GROUP BY status_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues per status: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var statusID int64
		var count int
		if err := rows.Scan(&statusID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan issue count: %w", err)
		}
		counts[statusID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issue counts: %w", err)
	}

	return counts, nil
}
