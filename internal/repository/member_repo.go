package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type MemberRepository struct {
	db *database.DB
}

func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = "id, team_id, user_id, role, joined_at"

// Add inserts the (team, user) membership. The unique index on
// (team_id, user_id) makes a concurrent duplicate surface as
// ErrAlreadyMember rather than a second row.
func (r *MemberRepository) Add(ctx context.Context, teamID, userID int64, role domain.Role) (*domain.TeamMember, error) {
	conn := r.db.Conn(ctx)

	var m domain.TeamMember
	err := conn.QueryRowContext(ctx,
		"INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3) RETURNING "+memberColumns,
		teamID, userID, role,
	).Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if IsUniqueViolation(err, "team_members_team_id_user_id_key") {
			return nil, domain.ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to insert team member: %w", err)
	}

	return &m, nil
}

func (r *MemberRepository) Get(ctx context.Context, teamID, userID int64) (*domain.TeamMember, error) {
	conn := r.db.Conn(ctx)

	var m domain.TeamMember
	err := conn.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM team_members WHERE team_id = $1 AND user_id = $2",
		teamID, userID,
	).Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &m, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, teamID, memberID int64) (*domain.TeamMember, error) {
	conn := r.db.Conn(ctx)

	var m domain.TeamMember
	err := conn.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM team_members WHERE id = $1 AND team_id = $2",
		memberID, teamID,
	).Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &m, nil
}

// RoleOf returns (nil, nil) when no membership exists: absence is an
// answer here, not an error.
func (r *MemberRepository) RoleOf(ctx context.Context, teamID, userID int64) (*domain.Role, error) {
	m, err := r.Get(ctx, teamID, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m.Role, nil
}

func (r *MemberRepository) Remove(ctx context.Context, memberID int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM team_members WHERE id = $1", memberID)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MemberRepository) UpdateRole(ctx context.Context, memberID int64, role domain.Role) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE team_members SET role = $1 WHERE id = $2",
		role, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MemberRepository) ListByTeam(ctx context.Context, teamID int64) ([]domain.TeamMember, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx,
		"SELECT "+memberColumns+` FROM team_members
		WHERE team_id = $1
		ORDER BY CASE role WHEN 'OWNER' THEN 0 WHEN 'ADMIN' THEN 1 ELSE 2 END, joined_at`,
		teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}

	return members, nil
}

// HasMemberWithEmail reports whether a user carrying email is already a
// member of the team. Used to refuse inviting existing members.
func (r *MemberRepository) HasMemberWithEmail(ctx context.Context, teamID int64, email string) (bool, error) {
	conn := r.db.Conn(ctx)

	var exists bool
	err := conn.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_members tm
			JOIN users u ON u.id = tm.user_id
			WHERE tm.team_id = $1 AND lower(u.email) = lower($2)
		)`, teamID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check member email: %w", err)
	}
	return exists, nil
}
