package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type LabelRepository struct {
	db *database.DB
}

func NewLabelRepository(db *database.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

const labelColumns = "id, project_id, name, color, created_at, updated_at"

func (r *LabelRepository) Create(ctx context.Context, projectID int64, name, color string) (*domain.Label, error) {
	conn := r.db.Conn(ctx)

	var l domain.Label
	err := conn.QueryRowContext(ctx,
		"INSERT INTO project_labels (project_id, name, color) VALUES ($1, $2, $3) RETURNING "+labelColumns,
		projectID, name, color,
	).Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err, "project_labels_project_id_name_key") {
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to insert label: %w", err)
	}

	return &l, nil
}

func (r *LabelRepository) GetByID(ctx context.Context, labelID int64) (*domain.Label, error) {
	conn := r.db.Conn(ctx)

	var l domain.Label
	err := conn.QueryRowContext(ctx,
		"SELECT "+labelColumns+" FROM project_labels WHERE id = $1",
		labelID,
	).Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &l, nil
}

func (r *LabelRepository) Update(ctx context.Context, labelID int64, name, color string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE project_labels SET name = $1, color = $2, updated_at = now() WHERE id = $3",
		name, color, labelID,
	)
	if err != nil {
		if IsUniqueViolation(err, "project_labels_project_id_name_key") {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("failed to update label: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the label and, via ON DELETE CASCADE on issue_labels,
// every attachment of it.
func (r *LabelRepository) Delete(ctx context.Context, labelID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM project_labels WHERE id = $1", labelID)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LabelRepository) CountByProject(ctx context.Context, projectID int64) (int, error) {
	conn := r.db.Conn(ctx)

	var count int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM project_labels WHERE project_id = $1",
		projectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count labels: %w", err)
	}
	return count, nil
}

func (r *LabelRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.Label, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT "+labelColumns+" FROM project_labels WHERE project_id = $1 ORDER BY name",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows)
}

// CountInProject reports how many of ids exist in the project; used to
// validate that a replace-set only references the project's own labels.
func (r *LabelRepository) CountInProject(ctx context.Context, projectID int64, ids []int64) (int, error) {
	conn := r.db.Conn(ctx)

	var count int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM project_labels WHERE project_id = $1 AND id = ANY($2)",
		projectID, pq.Array(ids),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count labels in project: %w", err)
	}
	return count, nil
}

func (r *LabelRepository) ListByIssue(ctx context.Context, issueID int64) ([]domain.Label, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT l.id, l.project_id, l.name, l.color, l.created_at, l.updated_at
		FROM issue_labels il
		JOIN project_labels l ON l.id = il.label_id
		WHERE il.issue_id = $1
		ORDER BY l.name`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue labels: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows)
}

func (r *LabelRepository) LabelIDsByIssue(ctx context.Context, issueID int64) ([]int64, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT label_id FROM issue_labels WHERE issue_id = $1", issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue label ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan label id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating label ids: %w", err)
	}
	return ids, nil
}

// Attach is idempotent per (issue, label).
func (r *LabelRepository) Attach(ctx context.Context, issueID, labelID int64) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`INSERT INTO issue_labels (issue_id, label_id) VALUES ($1, $2)
		 ON CONFLICT (issue_id, label_id) DO NOTHING`,
		issueID, labelID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach label: %w", err)
	}
	return nil
}

func (r *LabelRepository) Detach(ctx context.Context, issueID, labelID int64) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		"DELETE FROM issue_labels WHERE issue_id = $1 AND label_id = $2",
		issueID, labelID,
	)
	if err != nil {
		return fmt.Errorf("failed to detach label: %w", err)
	}
	return nil
}

func (r *LabelRepository) CountByIssue(ctx context.Context, issueID int64) (int, error) {
	conn := r.db.Conn(ctx)

	var count int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM issue_labels WHERE issue_id = $1", issueID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issue labels: %w", err)
	}
	return count, nil
}

func scanLabels(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Label, error) {
	var labels []domain.Label
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}
	return labels, nil
}
