// Package access answers role and reachability questions for teams,
// projects and issues. Every check is a pure read and fails closed: a
// missing row is a denial, never an error the caller must interpret.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
)

type MemberRepository interface {
	RoleOf(ctx context.Context, teamID, userID int64) (*domain.Role, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, projectID int64) (*domain.Project, error)
}

type IssueRepository interface {
	GetByID(ctx context.Context, issueID int64) (*domain.Issue, error)
}

type Resolver struct {
	memberRepo  MemberRepository
	projectRepo ProjectRepository
	issueRepo   IssueRepository
}

func NewResolver(memberRepo MemberRepository, projectRepo ProjectRepository, issueRepo IssueRepository) *Resolver {
	return &Resolver{
		memberRepo:  memberRepo,
		projectRepo: projectRepo,
		issueRepo:   issueRepo,
	}
}

// RoleOf returns the user's role in the team, or nil when the user is
// not a member.
func (r *Resolver) RoleOf(ctx context.Context, teamID, userID int64) (*domain.Role, error) {
	return r.memberRepo.RoleOf(ctx, teamID, userID)
}

// HasPermission reports whether the user holds at least min on the
// OWNER > ADMIN > MEMBER ladder.
func (r *Resolver) HasPermission(ctx context.Context, teamID, userID int64, min domain.Role) (bool, error) {
	role, err := r.RoleOf(ctx, teamID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve role: %w", err)
	}
	if role == nil {
		return false, nil
	}
	return role.AtLeast(min), nil
}

func (r *Resolver) IsMember(ctx context.Context, teamID, userID int64) (bool, error) {
	return r.HasPermission(ctx, teamID, userID, domain.RoleMember)
}

func (r *Resolver) IsAdmin(ctx context.Context, teamID, userID int64) (bool, error) {
	return r.HasPermission(ctx, teamID, userID, domain.RoleAdmin)
}

func (r *Resolver) IsOwner(ctx context.Context, teamID, userID int64) (bool, error) {
	return r.HasPermission(ctx, teamID, userID, domain.RoleOwner)
}

// HasProjectAccess derives project reachability transitively from team
// membership; access is never granted independently of the team.
func (r *Resolver) HasProjectAccess(ctx context.Context, projectID, userID int64) (bool, error) {
	project, err := r.projectRepo.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load project: %w", err)
	}
	return r.IsMember(ctx, project.TeamID, userID)
}

func (r *Resolver) HasIssueAccess(ctx context.Context, issueID, userID int64) (bool, error) {
	issue, err := r.issueRepo.GetByID(ctx, issueID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load issue: %w", err)
	}
	return r.HasProjectAccess(ctx, issue.ProjectID, userID)
}

// IsProjectOwner is the narrower check against Project.OwnerID, distinct
// from team-level ownership.
func (r *Resolver) IsProjectOwner(ctx context.Context, projectID, userID int64) (bool, error) {
	project, err := r.projectRepo.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load project: %w", err)
	}
	return project.OwnerID == userID, nil
}
