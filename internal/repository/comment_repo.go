package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type CommentRepository struct {
	db *database.DB
}

func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = "id, issue_id, author_id, body, created_at, updated_at"

func (r *CommentRepository) Create(ctx context.Context, issueID, authorID int64, body string) (*domain.Comment, error) {
	conn := r.db.Conn(ctx)

	var c domain.Comment
	err := conn.QueryRowContext(ctx,
		"INSERT INTO comments (issue_id, author_id, body) VALUES ($1, $2, $3) RETURNING "+commentColumns,
		issueID, authorID, body,
	).Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return &c, nil
}

func (r *CommentRepository) GetByID(ctx context.Context, commentID int64) (*domain.Comment, error) {
	conn := r.db.Conn(ctx)

	var c domain.Comment
	err := conn.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = $1 AND deleted_at IS NULL",
		commentID,
	).Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &c, nil
}

func (r *CommentRepository) Update(ctx context.Context, commentID int64, body string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE comments SET body = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL",
		body, commentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommentRepository) SoftDelete(ctx context.Context, commentID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE comments SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL",
		commentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommentRepository) ListByIssue(ctx context.Context, issueID int64) ([]domain.Comment, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT "+commentColumns+` FROM comments
		WHERE issue_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}
