package invite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
)

type fakeTx struct{}

func (fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeInviteRepo struct {
	nextID  int64
	invites map[int64]*domain.TeamInvite
}

func (f *fakeInviteRepo) Create(_ context.Context, invite domain.TeamInvite) (*domain.TeamInvite, error) {
	f.nextID++
	invite.ID = f.nextID
	f.invites[invite.ID] = &invite
	cp := invite
	return &cp, nil
}

func (f *fakeInviteRepo) GetByToken(_ context.Context, token string) (*domain.TeamInvite, error) {
	for _, inv := range f.invites {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeInviteRepo) GetByID(_ context.Context, inviteID, teamID int64) (*domain.TeamInvite, error) {
	inv, ok := f.invites[inviteID]
	if !ok || inv.TeamID != teamID {
		return nil, repository.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInviteRepo) HasPendingForEmail(_ context.Context, teamID int64, email string, now time.Time) (bool, error) {
	for _, inv := range f.invites {
		if inv.TeamID == teamID && inv.Email == email && !inv.IsAccepted() && !inv.IsExpired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInviteRepo) Accept(_ context.Context, token string, now time.Time) (bool, error) {
	for _, inv := range f.invites {
		if inv.Token == token && inv.AcceptedAt == nil {
			at := now
			inv.AcceptedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInviteRepo) Delete(_ context.Context, inviteID int64) error {
	delete(f.invites, inviteID)
	return nil
}

func (f *fakeInviteRepo) ListUnacceptedByTeam(_ context.Context, teamID int64) ([]domain.TeamInvite, error) {
	var out []domain.TeamInvite
	for _, inv := range f.invites {
		if inv.TeamID == teamID && !inv.IsAccepted() {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) ListPendingByEmail(_ context.Context, email string, now time.Time) ([]domain.TeamInvite, error) {
	var out []domain.TeamInvite
	for _, inv := range f.invites {
		if inv.Email == email && !inv.IsAccepted() && !inv.IsExpired(now) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

type fakeMemberRepo struct {
	members map[int64][]int64 // teamID -> userIDs
	emails  map[int64]string  // userID -> email
}

func (f *fakeMemberRepo) Add(_ context.Context, teamID, userID int64, _ domain.Role) (*domain.TeamMember, error) {
	for _, id := range f.members[teamID] {
		if id == userID {
			return nil, domain.ErrAlreadyMember
		}
	}
	f.members[teamID] = append(f.members[teamID], userID)
	return &domain.TeamMember{TeamID: teamID, UserID: userID, Role: domain.RoleMember}, nil
}

func (f *fakeMemberRepo) HasMemberWithEmail(_ context.Context, teamID int64, email string) (bool, error) {
	for _, id := range f.members[teamID] {
		if f.emails[id] == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	users map[int64]domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID int64) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeTeamRepo struct{}

func (fakeTeamRepo) GetByID(_ context.Context, teamID int64) (*domain.Team, error) {
	return &domain.Team{ID: teamID, Name: "platform"}, nil
}

type fakeActivityRepo struct {
	entries []domain.ActivityLog
}

func (f *fakeActivityRepo) Append(_ context.Context, entry domain.ActivityLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeAccess struct {
	admins map[int64]bool
}

func (f fakeAccess) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return true, nil
}

func (f fakeAccess) IsAdmin(_ context.Context, _, userID int64) (bool, error) {
	return f.admins[userID], nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) SendInvite(_ context.Context, email, _, _ string) error {
	f.sent = append(f.sent, email)
	return nil
}

type fakeNotificationRepo struct {
	created []domain.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n domain.Notification) (*domain.Notification, error) {
	n.ID = int64(len(f.created) + 1)
	f.created = append(f.created, n)
	return &n, nil
}

type fixture struct {
	svc           *InviteService
	invites       *fakeInviteRepo
	members       *fakeMemberRepo
	mailer        *fakeMailer
	notifications *fakeNotificationRepo
	now           time.Time
}

func newFixture() *fixture {
	f := &fixture{
		invites: &fakeInviteRepo{invites: map[int64]*domain.TeamInvite{}},
		members: &fakeMemberRepo{
			members: map[int64][]int64{1: {10}},
			emails:  map[int64]string{10: "owner@example.com", 20: "new@example.com"},
		},
		mailer:        &fakeMailer{},
		notifications: &fakeNotificationRepo{},
		now:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewInviteService(
		f.invites,
		f.members,
		&fakeUserRepo{users: map[int64]domain.User{
			10: {ID: 10, Email: "owner@example.com"},
			20: {ID: 20, Email: "new@example.com"},
			30: {ID: 30, Email: "other@example.com"},
		}},
		fakeTeamRepo{},
		&fakeActivityRepo{},
		f.notifications,
		fakeAccess{admins: map[int64]bool{10: true}},
		f.mailer,
		fakeTx{},
		logger,
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestCreateInvite(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "New@Example.com"})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	if invite.Email != "new@example.com" {
		t.Errorf("invite email: got %q, want normalized lowercase", invite.Email)
	}
	if invite.Token == "" {
		t.Error("invite token is empty")
	}
	if want := f.now.Add(domain.InviteTTL); !invite.ExpiresAt.Equal(want) {
		t.Errorf("expires_at: got %v, want %v", invite.ExpiresAt, want)
	}
	if len(f.mailer.sent) != 1 {
		t.Errorf("mailer sends: got %d, want 1", len(f.mailer.sent))
	}

	// The invited address belongs to an account, so it also gets an
	// in-app notification.
	if len(f.notifications.created) != 1 {
		t.Fatalf("notifications: got %d, want 1", len(f.notifications.created))
	}
	n := f.notifications.created[0]
	if n.UserID != 20 || n.Type != domain.NotificationTeamInvite {
		t.Errorf("notification: user %d type %s, want 20/%s", n.UserID, n.Type, domain.NotificationTeamInvite)
	}

	// A second pending invite for the same email is rejected.
	if _, err := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "new@example.com"}); !errors.Is(err, domain.ErrInvitePending) {
		t.Errorf("duplicate pending invite: got %v, want ErrInvitePending", err)
	}

	// Inviting an existing member is rejected.
	if _, err := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "owner@example.com"}); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("invite existing member: got %v, want ErrAlreadyMember", err)
	}

	// Non-admins cannot invite.
	if _, err := f.svc.CreateInvite(ctx, 1, 20, domain.InviteMemberRequest{Email: "x@example.com"}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("non-admin invite: got %v, want ErrPermissionDenied", err)
	}
}

func TestCreateInviteUnknownAddressSkipsNotification(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if _, err := f.svc.CreateInvite(context.Background(), 1, 10, domain.InviteMemberRequest{Email: "stranger@example.com"}); err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Errorf("mailer sends: got %d, want 1", len(f.mailer.sent))
	}
	if len(f.notifications.created) != 0 {
		t.Errorf("notifications for unknown address: got %d, want 0", len(f.notifications.created))
	}
}

func TestAcceptInvite(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	// The wrong account cannot consume the token.
	if _, err := f.svc.AcceptInvite(ctx, 30, domain.AcceptInviteRequest{Token: invite.Token}); !errors.Is(err, domain.ErrInviteEmailMismatch) {
		t.Errorf("mismatched email accept: got %v, want ErrInviteEmailMismatch", err)
	}

	member, err := f.svc.AcceptInvite(ctx, 20, domain.AcceptInviteRequest{Token: invite.Token})
	if err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	if member.TeamID != 1 || member.UserID != 20 || member.Role != domain.RoleMember {
		t.Errorf("accepted member: got %+v, want team 1 user 20 MEMBER", member)
	}

	// The token is single-use.
	if _, err := f.svc.AcceptInvite(ctx, 20, domain.AcceptInviteRequest{Token: invite.Token}); !errors.Is(err, domain.ErrInviteAccepted) {
		t.Errorf("double accept: got %v, want ErrInviteAccepted", err)
	}

	if _, err := f.svc.AcceptInvite(ctx, 20, domain.AcceptInviteRequest{Token: "no-such-token"}); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("unknown token: got %v, want ErrInviteNotFound", err)
	}
}

func TestAcceptExpiredInvite(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	f.now = f.now.Add(domain.InviteTTL + time.Hour)
	if _, err := f.svc.AcceptInvite(ctx, 20, domain.AcceptInviteRequest{Token: invite.Token}); !errors.Is(err, domain.ErrInviteExpired) {
		t.Errorf("expired accept: got %v, want ErrInviteExpired", err)
	}

	// Expiry frees the email for a fresh invite.
	if _, err := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "new@example.com"}); err != nil {
		t.Errorf("re-invite after expiry: %v", err)
	}
}

func TestCancelInvite(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	if err := f.svc.CancelInvite(ctx, 1, invite.ID, 20); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("non-admin cancel: got %v, want ErrPermissionDenied", err)
	}
	if err := f.svc.CancelInvite(ctx, 1, invite.ID, 10); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.AcceptInvite(ctx, 20, domain.AcceptInviteRequest{Token: invite.Token}); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("accept after cancel: got %v, want ErrInviteNotFound", err)
	}
}

func TestCancelAcceptedInviteRejected(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	invite, _ := f.svc.CreateInvite(ctx, 1, 10, domain.InviteMemberRequest{Email: "new@example.com"})
	if _, err := f.svc.AcceptInvite(ctx, 20, domain.AcceptInviteRequest{Token: invite.Token}); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}

	if err := f.svc.CancelInvite(ctx, 1, invite.ID, 10); !errors.Is(err, domain.ErrInviteAccepted) {
		t.Errorf("cancel accepted invite: got %v, want ErrInviteAccepted", err)
	}
}
