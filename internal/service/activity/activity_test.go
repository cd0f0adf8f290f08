package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/planora/planora-backend/internal/domain"
)

type fakeActivityRepo struct {
	gotLimit int
	entries  []domain.ActivityLog
}

func (f *fakeActivityRepo) ListByTeam(_ context.Context, _ int64, limit int) ([]domain.ActivityLog, error) {
	f.gotLimit = limit
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

type fakeAccess struct {
	members map[int64]bool
}

func (f fakeAccess) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return f.members[userID], nil
}

func newService(repo *fakeActivityRepo) *ActivityService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewActivityService(repo, fakeAccess{members: map[int64]bool{10: true}}, logger)
}

func TestGetActivityLogsDefaultLimit(t *testing.T) {
	t.Parallel()
	repo := &fakeActivityRepo{}
	for i := 0; i < 60; i++ {
		repo.entries = append(repo.entries, domain.ActivityLog{ID: int64(i + 1), TeamID: 1})
	}
	svc := newService(repo)

	logs, err := svc.GetActivityLogs(context.Background(), 1, 10, 0)
	if err != nil {
		t.Fatalf("GetActivityLogs: %v", err)
	}
	if repo.gotLimit != domain.DefaultActivityLimit {
		t.Errorf("limit passed to repo: got %d, want %d", repo.gotLimit, domain.DefaultActivityLimit)
	}
	if len(logs) != domain.DefaultActivityLimit {
		t.Errorf("returned entries: got %d, want %d", len(logs), domain.DefaultActivityLimit)
	}

	// Oversized limits fall back to the default too.
	if _, err := svc.GetActivityLogs(context.Background(), 1, 10, 10000); err != nil {
		t.Fatalf("GetActivityLogs: %v", err)
	}
	if repo.gotLimit != domain.DefaultActivityLimit {
		t.Errorf("oversized limit: repo got %d, want %d", repo.gotLimit, domain.DefaultActivityLimit)
	}
}

func TestGetActivityLogsMemberOnly(t *testing.T) {
	t.Parallel()
	svc := newService(&fakeActivityRepo{})

	if _, err := svc.GetActivityLogs(context.Background(), 1, 99, 0); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("non-member feed read: got %v, want ErrPermissionDenied", err)
	}
}
