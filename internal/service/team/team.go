package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/pkg/database"
)

type TeamRepository interface {
	Create(ctx context.Context, name string, ownerID int64) (*domain.Team, error)
	GetByID(ctx context.Context, teamID int64) (*domain.Team, error)
	UpdateName(ctx context.Context, teamID int64, name string) error
	SoftDelete(ctx context.Context, teamID int64) error
	ListByUserID(ctx context.Context, userID int64) ([]domain.Team, error)
}

type MemberRepository interface {
	Add(ctx context.Context, teamID, userID int64, role domain.Role) (*domain.TeamMember, error)
	GetByID(ctx context.Context, teamID, memberID int64) (*domain.TeamMember, error)
	RoleOf(ctx context.Context, teamID, userID int64) (*domain.Role, error)
	Remove(ctx context.Context, memberID int64) error
	UpdateRole(ctx context.Context, memberID int64, role domain.Role) error
	ListByTeam(ctx context.Context, teamID int64) ([]domain.TeamMember, error)
}

type ActivityRepository interface {
	Append(ctx context.Context, entry domain.ActivityLog) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (*domain.Notification, error)
}

type AccessResolver interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, teamID, userID int64) (bool, error)
	IsOwner(ctx context.Context, teamID, userID int64) (bool, error)
}

type TeamService struct {
	teamRepo         TeamRepository
	memberRepo       MemberRepository
	activityRepo     ActivityRepository
	notificationRepo NotificationRepository
	access           AccessResolver
	txManager        database.TransactionManagerInterface
	lg               *slog.Logger
}

func NewTeamService(teamRepo TeamRepository,
	memberRepo MemberRepository,
	activityRepo ActivityRepository,
	notificationRepo NotificationRepository,
	access AccessResolver,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *TeamService {
	return &TeamService{
		teamRepo:         teamRepo,
		memberRepo:       memberRepo,
		activityRepo:     activityRepo,
		notificationRepo: notificationRepo,
		access:           access,
		txManager:        txManager,
		lg:               lg,
	}
}

// CreateTeam creates the team, makes the creator an OWNER member, and
// appends TEAM_CREATED, all in one transaction.
func (s *TeamService) CreateTeam(ctx context.Context, userID int64, req domain.CreateTeamRequest) (*domain.Team, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	var team *domain.Team
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		team, err = s.teamRepo.Create(txCtx, req.Name, userID)
		if err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}

		if _, err := s.memberRepo.Add(txCtx, team.ID, userID, domain.RoleOwner); err != nil {
			return fmt.Errorf("failed to add owner membership: %w", err)
		}

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     team.ID,
			ActorID:    userID,
			ActionType: domain.ActionTeamCreated,
			TargetID:   &team.ID,
			TargetType: "Team",
			Message:    fmt.Sprintf("Created team %q", team.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("team created", slog.Int64("team_id", team.ID), slog.Int64("owner_id", userID))
	return team, nil
}

func (s *TeamService) UpdateTeam(ctx context.Context, teamID, userID int64, req domain.UpdateTeamRequest) (*domain.Team, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	var team *domain.Team
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		team, err = s.teamRepo.GetByID(txCtx, teamID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrTeamNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}

		ok, err := s.access.IsAdmin(txCtx, teamID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPermissionDenied
		}

		oldName := team.Name
		if err := s.teamRepo.UpdateName(txCtx, teamID, req.Name); err != nil {
			return fmt.Errorf("failed to update team: %w", err)
		}
		team.Name = req.Name

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     teamID,
			ActorID:    userID,
			ActionType: domain.ActionTeamUpdated,
			TargetID:   &teamID,
			TargetType: "Team",
			Message:    fmt.Sprintf("Renamed team %q to %q", oldName, req.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("team updated", slog.Int64("team_id", teamID), slog.Int64("actor_id", userID))
	return team, nil
}

// DeleteTeam soft-deletes; only the team owner may do it.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID, userID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		team, err := s.teamRepo.GetByID(txCtx, teamID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrTeamNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}

		ok, err := s.access.IsOwner(txCtx, teamID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPermissionDenied
		}

		if err := s.teamRepo.SoftDelete(txCtx, teamID); err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     teamID,
			ActorID:    userID,
			ActionType: domain.ActionTeamDeleted,
			TargetID:   &teamID,
			TargetType: "Team",
			Message:    fmt.Sprintf("Deleted team %q", team.Name),
		})
	})
	if err != nil {
		return err
	}

	s.lg.Info("team deleted", slog.Int64("team_id", teamID), slog.Int64("actor_id", userID))
	return nil
}

func (s *TeamService) GetTeam(ctx context.Context, teamID, userID int64) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	ok, err := s.access.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	return team, nil
}

func (s *TeamService) GetMyTeams(ctx context.Context, userID int64) ([]domain.Team, error) {
	return s.teamRepo.ListByUserID(ctx, userID)
}

func (s *TeamService) GetTeamMembers(ctx context.Context, teamID, userID int64) ([]domain.TeamMember, error) {
	ok, err := s.access.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	return s.memberRepo.ListByTeam(ctx, teamID)
}

// RemoveMember enforces the removal ladder: anyone may remove
// themselves; an ADMIN may remove a MEMBER but not another ADMIN; the
// OWNER may remove anyone; nobody removes the OWNER.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, memberID, requesterID int64) error {
	var left bool
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		member, err := s.memberRepo.GetByID(txCtx, teamID, memberID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrMemberNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}

		if member.Role == domain.RoleOwner {
			return domain.ErrCannotRemoveOwner
		}

		requesterRole, err := s.memberRepo.RoleOf(txCtx, teamID, requesterID)
		if err != nil {
			return err
		}
		if requesterRole == nil {
			return domain.ErrPermissionDenied
		}

		left = member.UserID == requesterID
		if !left {
			if !requesterRole.AtLeast(domain.RoleAdmin) {
				return domain.ErrPermissionDenied
			}
			if *requesterRole == domain.RoleAdmin && member.Role == domain.RoleAdmin {
				return domain.ErrPermissionDenied
			}
		}

		if err := s.memberRepo.Remove(txCtx, memberID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		actionType := domain.ActionMemberKicked
		message := fmt.Sprintf("Removed user %d from the team", member.UserID)
		if left {
			actionType = domain.ActionMemberLeft
			message = fmt.Sprintf("User %d left the team", member.UserID)
		}

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     teamID,
			ActorID:    requesterID,
			ActionType: actionType,
			TargetID:   &member.UserID,
			TargetType: "User",
			Message:    message,
		})
	})
	if err != nil {
		return err
	}

	s.lg.Info("member removed",
		slog.Int64("team_id", teamID),
		slog.Int64("member_id", memberID),
		slog.Bool("self_leave", left))
	return nil
}

// UpdateMemberRole flips a member between ADMIN and MEMBER. The OWNER
// role is not assignable or revocable through this path.
func (s *TeamService) UpdateMemberRole(ctx context.Context, teamID, memberID, requesterID int64, req domain.UpdateMemberRoleRequest) (*domain.TeamMember, error) {
	if !req.Role.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	var (
		member  *domain.TeamMember
		changed bool
	)
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		member, err = s.memberRepo.GetByID(txCtx, teamID, memberID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrMemberNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}

		if member.Role == domain.RoleOwner || req.Role == domain.RoleOwner {
			return domain.ErrCannotChangeOwner
		}

		ok, err := s.access.IsAdmin(txCtx, teamID, requesterID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPermissionDenied
		}

		// Assigning the role the member already has changes nothing and
		// records nothing.
		if member.Role == req.Role {
			return nil
		}
		changed = true

		oldRole := member.Role
		if err := s.memberRepo.UpdateRole(txCtx, memberID, req.Role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		member.Role = req.Role

		metadata, err := json.Marshal(map[string]any{
			"old_role": oldRole,
			"new_role": req.Role,
		})
		if err != nil {
			return fmt.Errorf("failed to encode role change: %w", err)
		}

		if err := s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     teamID,
			ActorID:    requesterID,
			ActionType: domain.ActionRoleChanged,
			TargetID:   &member.UserID,
			TargetType: "User",
			Message:    fmt.Sprintf("Changed role of user %d from %s to %s", member.UserID, oldRole, req.Role),
			Metadata:   metadata,
		}); err != nil {
			return err
		}

		team, err := s.teamRepo.GetByID(txCtx, teamID)
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}
		_, err = s.notificationRepo.Create(txCtx, domain.Notification{
			UserID:  member.UserID,
			Type:    domain.NotificationRoleChanged,
			Title:   fmt.Sprintf("Your role changed in team: %s", team.Name),
			Message: fmt.Sprintf("Your role changed from %s to %s in team '%s'", oldRole, req.Role, team.Name),
			Payload: metadata,
		})
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.lg.Info("member role updated",
			slog.Int64("team_id", teamID),
			slog.Int64("member_id", memberID),
			slog.String("role", string(req.Role)))
	}
	return member, nil
}
