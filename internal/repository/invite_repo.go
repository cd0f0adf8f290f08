package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type InviteRepository struct {
	db *database.DB
}

func NewInviteRepository(db *database.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = "id, team_id, email, token, expires_at, accepted_at, created_by, created_at"

func (r *InviteRepository) Create(ctx context.Context, invite domain.TeamInvite) (*domain.TeamInvite, error) {
	conn := r.db.Conn(ctx)

	var out domain.TeamInvite
	err := conn.QueryRowContext(ctx,
		`INSERT INTO team_invites (team_id, email, token, expires_at, created_by)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+inviteColumns,
		invite.TeamID, invite.Email, invite.Token, invite.ExpiresAt, invite.CreatedBy,
	).Scan(&out.ID, &out.TeamID, &out.Email, &out.Token, &out.ExpiresAt, &out.AcceptedAt, &out.CreatedBy, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invite: %w", err)
	}

	return &out, nil
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*domain.TeamInvite, error) {
	conn := r.db.Conn(ctx)

	var inv domain.TeamInvite
	err := conn.QueryRowContext(ctx,
		"SELECT "+inviteColumns+" FROM team_invites WHERE token = $1",
		token,
	).Scan(&inv.ID, &inv.TeamID, &inv.Email, &inv.Token, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedBy, &inv.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &inv, nil
}

func (r *InviteRepository) GetByID(ctx context.Context, inviteID, teamID int64) (*domain.TeamInvite, error) {
	conn := r.db.Conn(ctx)

	var inv domain.TeamInvite
	err := conn.QueryRowContext(ctx,
		"SELECT "+inviteColumns+" FROM team_invites WHERE id = $1 AND team_id = $2",
		inviteID, teamID,
	).Scan(&inv.ID, &inv.TeamID, &inv.Email, &inv.Token, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedBy, &inv.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &inv, nil
}

func (r *InviteRepository) HasPendingForEmail(ctx context.Context, teamID int64, email string, now time.Time) (bool, error) {
	conn := r.db.Conn(ctx)

	var exists bool
	err := conn.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_invites
			WHERE team_id = $1 AND lower(email) = lower($2)
			  AND accepted_at IS NULL AND expires_at > $3
		)`, teamID, email, now).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending invite: %w", err)
	}
	return exists, nil
}

// Accept sets accepted_at only when it is still unset: a compare-and-set
// so two concurrent accepts of the same token cannot both win.
func (r *InviteRepository) Accept(ctx context.Context, token string, now time.Time) (bool, error) {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE team_invites SET accepted_at = $1 WHERE token = $2 AND accepted_at IS NULL",
		now, token,
	)
	if err != nil {
		return false, fmt.Errorf("failed to accept invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *InviteRepository) Delete(ctx context.Context, inviteID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM team_invites WHERE id = $1", inviteID)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InviteRepository) ListUnacceptedByTeam(ctx context.Context, teamID int64) ([]domain.TeamInvite, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT "+inviteColumns+` FROM team_invites
		WHERE team_id = $1 AND accepted_at IS NULL
		ORDER BY created_at DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team invites: %w", err)
	}
	defer rows.Close()

	return scanInvites(rows)
}

func (r *InviteRepository) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.TeamInvite, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT "+inviteColumns+` FROM team_invites
		WHERE lower(email) = lower($1) AND accepted_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC`, email, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query user invites: %w", err)
	}
	defer rows.Close()

	return scanInvites(rows)
}

type inviteRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanInvites(rows inviteRows) ([]domain.TeamInvite, error) {
	var invites []domain.TeamInvite
	for rows.Next() {
		var inv domain.TeamInvite
		if err := rows.Scan(&inv.ID, &inv.TeamID, &inv.Email, &inv.Token, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedBy, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invites: %w", err)
	}
	return invites, nil
}
