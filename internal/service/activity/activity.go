package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/planora/planora-backend/internal/domain"
)

type ActivityRepository interface {
	ListByTeam(ctx context.Context, teamID int64, limit int) ([]domain.ActivityLog, error)
}

type AccessResolver interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
}

type ActivityService struct {
	activityRepo ActivityRepository
	access       AccessResolver
	lg           *slog.Logger
}

func NewActivityService(activityRepo ActivityRepository, access AccessResolver, lg *slog.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		access:       access,
		lg:           lg,
	}
}

// GetActivityLogs returns the team feed, newest first. Any team member
// may read it; the limit defaults to DefaultActivityLimit.
func (s *ActivityService) GetActivityLogs(ctx context.Context, teamID, userID int64, limit int) ([]domain.ActivityLog, error) {
	ok, err := s.access.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	if limit <= 0 || limit > 200 {
		limit = domain.DefaultActivityLimit
	}

	logs, err := s.activityRepo.ListByTeam(ctx, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return logs, nil
}
