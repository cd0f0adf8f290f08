package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/pkg/database"
)

type InviteRepository interface {
	Create(ctx context.Context, invite domain.TeamInvite) (*domain.TeamInvite, error)
	GetByToken(ctx context.Context, token string) (*domain.TeamInvite, error)
	GetByID(ctx context.Context, inviteID, teamID int64) (*domain.TeamInvite, error)
	HasPendingForEmail(ctx context.Context, teamID int64, email string, now time.Time) (bool, error)
	Accept(ctx context.Context, token string, now time.Time) (bool, error)
	Delete(ctx context.Context, inviteID int64) error
	ListUnacceptedByTeam(ctx context.Context, teamID int64) ([]domain.TeamInvite, error)
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.TeamInvite, error)
}

type MemberRepository interface {
	Add(ctx context.Context, teamID, userID int64, role domain.Role) (*domain.TeamMember, error)
	HasMemberWithEmail(ctx context.Context, teamID int64, email string) (bool, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (*domain.Notification, error)
}

type TeamRepository interface {
	GetByID(ctx context.Context, teamID int64) (*domain.Team, error)
}

type ActivityRepository interface {
	Append(ctx context.Context, entry domain.ActivityLog) error
}

type AccessResolver interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, teamID, userID int64) (bool, error)
}

// Mailer delivers the invite to the recipient. Delivery happens after
// the transaction commits; a failed send does not undo the invite.
type Mailer interface {
	SendInvite(ctx context.Context, email, teamName, token string) error
}

type InviteService struct {
	inviteRepo       InviteRepository
	memberRepo       MemberRepository
	userRepo         UserRepository
	teamRepo         TeamRepository
	activityRepo     ActivityRepository
	notificationRepo NotificationRepository
	access           AccessResolver
	mailer           Mailer
	txManager        database.TransactionManagerInterface
	now              func() time.Time
	lg               *slog.Logger
}

func NewInviteService(inviteRepo InviteRepository,
	memberRepo MemberRepository,
	userRepo UserRepository,
	teamRepo TeamRepository,
	activityRepo ActivityRepository,
	notificationRepo NotificationRepository,
	access AccessResolver,
	mailer Mailer,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *InviteService {
	return &InviteService{
		inviteRepo:       inviteRepo,
		memberRepo:       memberRepo,
		userRepo:         userRepo,
		teamRepo:         teamRepo,
		activityRepo:     activityRepo,
		notificationRepo: notificationRepo,
		access:           access,
		mailer:           mailer,
		txManager:        txManager,
		now:              time.Now,
		lg:               lg,
	}
}

// CreateInvite issues a single-use token valid for domain.InviteTTL.
// At most one pending invite per email per team.
func (s *InviteService) CreateInvite(ctx context.Context, teamID, userID int64, req domain.InviteMemberRequest) (*domain.TeamInvite, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, domain.ErrInvalidInput
	}

	var (
		invite   *domain.TeamInvite
		teamName string
	)
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		team, err := s.teamRepo.GetByID(txCtx, teamID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrTeamNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}
		teamName = team.Name

		ok, err := s.access.IsAdmin(txCtx, teamID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPermissionDenied
		}

		isMember, err := s.memberRepo.HasMemberWithEmail(txCtx, teamID, email)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if isMember {
			return domain.ErrAlreadyMember
		}

		pending, err := s.inviteRepo.HasPendingForEmail(txCtx, teamID, email, s.now())
		if err != nil {
			return fmt.Errorf("failed to check pending invites: %w", err)
		}
		if pending {
			return domain.ErrInvitePending
		}

		now := s.now()
		invite, err = s.inviteRepo.Create(txCtx, domain.TeamInvite{
			TeamID:    teamID,
			Email:     email,
			Token:     uuid.NewString(),
			ExpiresAt: now.Add(domain.InviteTTL),
			CreatedBy: userID,
		})
		if err != nil {
			return fmt.Errorf("failed to create invite: %w", err)
		}

		if err := s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     teamID,
			ActorID:    userID,
			ActionType: domain.ActionMemberInvited,
			TargetID:   &invite.ID,
			TargetType: "TeamInvite",
			Message:    fmt.Sprintf("Invited %s to the team", email),
		}); err != nil {
			return err
		}

		// An existing account gets an in-app notification as well; an
		// unknown address only gets the email.
		invited, err := s.userRepo.GetByEmail(txCtx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up invited user: %w", err)
		}
		payload, err := json.Marshal(map[string]any{
			"team_id":   teamID,
			"team_name": team.Name,
			"invite_id": invite.ID,
			"token":     invite.Token,
		})
		if err != nil {
			return fmt.Errorf("failed to encode invite payload: %w", err)
		}
		_, err = s.notificationRepo.Create(txCtx, domain.Notification{
			UserID:  invited.ID,
			Type:    domain.NotificationTeamInvite,
			Title:   fmt.Sprintf("Team invitation: %s", team.Name),
			Message: fmt.Sprintf("You have been invited to join team '%s'", team.Name),
			Payload: payload,
		})
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendInvite(ctx, email, teamName, invite.Token); err != nil {
		s.lg.Warn("failed to send invite email",
			slog.Int64("invite_id", invite.ID),
			slog.String("error", err.Error()))
	}

	s.lg.Info("invite created", slog.Int64("team_id", teamID), slog.Int64("invite_id", invite.ID))
	return invite, nil
}

// AcceptInvite consumes the token and adds the caller as a MEMBER.
// The accept is a compare-and-set on accepted_at, so two concurrent
// accepts cannot both succeed.
func (s *InviteService) AcceptInvite(ctx context.Context, userID int64, req domain.AcceptInviteRequest) (*domain.TeamMember, error) {
	if req.Token == "" {
		return nil, domain.ErrInvalidInput
	}

	var member *domain.TeamMember
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		invite, err := s.inviteRepo.GetByToken(txCtx, req.Token)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrInviteNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get invite: %w", err)
		}

		now := s.now()
		if invite.IsAccepted() {
			return domain.ErrInviteAccepted
		}
		if invite.IsExpired(now) {
			return domain.ErrInviteExpired
		}

		user, err := s.userRepo.GetByID(txCtx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if !strings.EqualFold(user.Email, invite.Email) {
			return domain.ErrInviteEmailMismatch
		}

		accepted, err := s.inviteRepo.Accept(txCtx, req.Token, now)
		if err != nil {
			return fmt.Errorf("failed to accept invite: %w", err)
		}
		if !accepted {
			return domain.ErrInviteAccepted
		}

		member, err = s.memberRepo.Add(txCtx, invite.TeamID, userID, domain.RoleMember)
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     invite.TeamID,
			ActorID:    userID,
			ActionType: domain.ActionMemberJoined,
			TargetID:   &userID,
			TargetType: "User",
			Message:    fmt.Sprintf("%s joined the team", user.Email),
		})
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("invite accepted", slog.Int64("team_id", member.TeamID), slog.Int64("user_id", userID))
	return member, nil
}

// CancelInvite deletes a pending invite. Accepted invites are part of
// the membership history and stay.
func (s *InviteService) CancelInvite(ctx context.Context, teamID, inviteID, userID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		invite, err := s.inviteRepo.GetByID(txCtx, inviteID, teamID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrInviteNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get invite: %w", err)
		}

		ok, err := s.access.IsAdmin(txCtx, teamID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPermissionDenied
		}

		if invite.IsAccepted() {
			return domain.ErrInviteAccepted
		}

		if err := s.inviteRepo.Delete(txCtx, inviteID); err != nil {
			return fmt.Errorf("failed to delete invite: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.lg.Info("invite cancelled", slog.Int64("team_id", teamID), slog.Int64("invite_id", inviteID))
	return nil
}

// GetTeamInvites lists unaccepted invites with derived expiry flags.
func (s *InviteService) GetTeamInvites(ctx context.Context, teamID, userID int64) ([]domain.InviteView, error) {
	ok, err := s.access.IsAdmin(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	invites, err := s.inviteRepo.ListUnacceptedByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return toViews(invites, s.now()), nil
}

// GetMyInvites lists pending invites addressed to the caller's email.
func (s *InviteService) GetMyInvites(ctx context.Context, userID int64) ([]domain.InviteView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	invites, err := s.inviteRepo.ListPendingByEmail(ctx, user.Email, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return toViews(invites, s.now()), nil
}

func toViews(invites []domain.TeamInvite, now time.Time) []domain.InviteView {
	views := make([]domain.InviteView, 0, len(invites))
	for _, inv := range invites {
		views = append(views, inv.View(now))
	}
	return views
}
