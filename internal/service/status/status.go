package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/pkg/database"
)

type StatusRepository interface {
	Create(ctx context.Context, s domain.IssueStatus) (*domain.IssueStatus, error)
	GetByID(ctx context.Context, statusID int64) (*domain.IssueStatus, error)
	GetForUpdate(ctx context.Context, statusID int64) (*domain.IssueStatus, error)
	GetDefault(ctx context.Context, projectID int64) (*domain.IssueStatus, error)
	NameExists(ctx context.Context, projectID int64, name string, excludeID int64) (bool, error)
	NextPosition(ctx context.Context, projectID int64) (int, error)
	UnsetDefaults(ctx context.Context, projectID, keepID int64) error
	Update(ctx context.Context, s domain.IssueStatus) error
	SoftDelete(ctx context.Context, statusID int64) error
	SetPosition(ctx context.Context, statusID int64, position int) error
	ListByProject(ctx context.Context, projectID int64) ([]domain.IssueStatus, error)
	ListByProjectForUpdate(ctx context.Context, projectID int64) ([]domain.IssueStatus, error)
	CountsByStatus(ctx context.Context, projectID int64) (map[int64]int, error)
}

type IssueRepository interface {
	CountByStatus(ctx context.Context, statusID, excludeIssueID int64) (int, error)
	ReassignStatus(ctx context.Context, fromStatusID, toStatusID int64) error
}

type ProjectRepository interface {
	GetByID(ctx context.Context, projectID int64) (*domain.Project, error)
}

type AccessResolver interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
}

type StatusService struct {
	statusRepo  StatusRepository
	issueRepo   IssueRepository
	projectRepo ProjectRepository
	access      AccessResolver
	txManager   database.TransactionManagerInterface
	lg          *slog.Logger
}

func NewStatusService(statusRepo StatusRepository,
	issueRepo IssueRepository,
	projectRepo ProjectRepository,
	access AccessResolver,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *StatusService {
	return &StatusService{
		statusRepo:  statusRepo,
		issueRepo:   issueRepo,
		projectRepo: projectRepo,
		access:      access,
		txManager:   txManager,
		lg:          lg,
	}
}

// CreateStatus adds a board column. Without an explicit position it is
// appended after the current tail; an explicit position shifts the
// columns at and after it one slot right.
func (s *StatusService) CreateStatus(ctx context.Context, projectID, userID int64, req domain.CreateIssueStatusRequest) (*domain.IssueStatus, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.WipLimit != nil && *req.WipLimit < 1 {
		return nil, domain.ErrInvalidInput
	}

	var status *domain.IssueStatus
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkBoardAccess(txCtx, projectID, userID, true); err != nil {
			return err
		}

		// Lock the column set so concurrent creates and reorders
		// serialize on it.
		existing, err := s.statusRepo.ListByProjectForUpdate(txCtx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}

		taken, err := s.statusRepo.NameExists(txCtx, projectID, req.Name, 0)
		if err != nil {
			return fmt.Errorf("failed to check status name: %w", err)
		}
		if taken {
			return domain.ErrDuplicateName
		}

		position := len(existing)
		if req.Position != nil {
			position = clamp(*req.Position, 0, len(existing))
		}

		if req.IsDefault {
			if err := s.statusRepo.UnsetDefaults(txCtx, projectID, 0); err != nil {
				return fmt.Errorf("failed to unset defaults: %w", err)
			}
		}

		status, err = s.statusRepo.Create(txCtx, domain.IssueStatus{
			ProjectID: projectID,
			Name:      req.Name,
			Color:     req.Color,
			Position:  position,
			IsDefault: req.IsDefault || len(existing) == 0,
			WipLimit:  req.WipLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to create status: %w", err)
		}

		// Shift the displaced tail right to keep positions dense.
		for _, st := range existing {
			if st.Position >= position {
				if err := s.statusRepo.SetPosition(txCtx, st.ID, st.Position+1); err != nil {
					return fmt.Errorf("failed to shift status: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("status created", slog.Int64("project_id", projectID), slog.Int64("status_id", status.ID))
	return status, nil
}

// UpdateStatus renames or recolors a column and adjusts its WIP limit.
// A new limit below the column's live issue count is rejected so the
// limit can never be observed broken.
func (s *StatusService) UpdateStatus(ctx context.Context, projectID, statusID, userID int64, req domain.UpdateIssueStatusRequest) (*domain.IssueStatus, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.WipLimit != nil && *req.WipLimit < 1 {
		return nil, domain.ErrInvalidInput
	}

	var status *domain.IssueStatus
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkBoardAccess(txCtx, projectID, userID, true); err != nil {
			return err
		}

		var err error
		status, err = s.statusRepo.GetForUpdate(txCtx, statusID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrStatusNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		if status.ProjectID != projectID {
			return domain.ErrStatusNotInProject
		}

		taken, err := s.statusRepo.NameExists(txCtx, projectID, req.Name, statusID)
		if err != nil {
			return fmt.Errorf("failed to check status name: %w", err)
		}
		if taken {
			return domain.ErrDuplicateName
		}

		if req.WipLimit != nil && domain.WIPTightenPolicy == domain.WIPTightenReject {
			count, err := s.issueRepo.CountByStatus(txCtx, statusID, 0)
			if err != nil {
				return fmt.Errorf("failed to count issues: %w", err)
			}
			if count > *req.WipLimit {
				return domain.ErrWIPLimitExceeded
			}
		}

		// A project always has exactly one default column, so the
		// default flag can only move to another column, not be dropped.
		if status.IsDefault && !req.IsDefault {
			return domain.ErrInvalidInput
		}
		if req.IsDefault && !status.IsDefault {
			if err := s.statusRepo.UnsetDefaults(txCtx, projectID, statusID); err != nil {
				return fmt.Errorf("failed to unset defaults: %w", err)
			}
		}

		status.Name = req.Name
		status.Color = req.Color
		status.IsDefault = req.IsDefault
		status.WipLimit = req.WipLimit
		if err := s.statusRepo.Update(txCtx, *status); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("status updated", slog.Int64("status_id", statusID))
	return status, nil
}

// DeleteStatus soft-deletes a non-default column. Its issues move to
// the default column, appended after that column's tail, which makes
// the delete reversible in meaning: no issue is lost.
func (s *StatusService) DeleteStatus(ctx context.Context, projectID, statusID, userID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkBoardAccess(txCtx, projectID, userID, true); err != nil {
			return err
		}

		statuses, err := s.statusRepo.ListByProjectForUpdate(txCtx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}

		var status *domain.IssueStatus
		for i := range statuses {
			if statuses[i].ID == statusID {
				status = &statuses[i]
				break
			}
		}
		if status == nil {
			return domain.ErrStatusNotFound
		}
		if status.IsDefault {
			return domain.ErrDefaultStatusDelete
		}

		def, err := s.statusRepo.GetDefault(txCtx, projectID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrStatusNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get default status: %w", err)
		}

		if def.WipLimit != nil {
			moving, err := s.issueRepo.CountByStatus(txCtx, statusID, 0)
			if err != nil {
				return fmt.Errorf("failed to count issues: %w", err)
			}
			inDefault, err := s.issueRepo.CountByStatus(txCtx, def.ID, 0)
			if err != nil {
				return fmt.Errorf("failed to count issues: %w", err)
			}
			if inDefault+moving > *def.WipLimit {
				return domain.ErrWIPLimitExceeded
			}
		}

		if err := s.issueRepo.ReassignStatus(txCtx, statusID, def.ID); err != nil {
			return fmt.Errorf("failed to reassign issues: %w", err)
		}
		if err := s.statusRepo.SoftDelete(txCtx, statusID); err != nil {
			return fmt.Errorf("failed to delete status: %w", err)
		}

		// Close the positional gap left by the deleted column.
		for _, st := range statuses {
			if st.Position > status.Position {
				if err := s.statusRepo.SetPosition(txCtx, st.ID, st.Position-1); err != nil {
					return fmt.Errorf("failed to shift status: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.lg.Info("status deleted", slog.Int64("project_id", projectID), slog.Int64("status_id", statusID))
	return nil
}

// ReorderStatuses rewrites column positions from the given id list,
// which must be an exact permutation of the project's live columns.
func (s *StatusService) ReorderStatuses(ctx context.Context, projectID, userID int64, req domain.ReorderRequest) ([]domain.IssueStatus, error) {
	var out []domain.IssueStatus
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkBoardAccess(txCtx, projectID, userID, true); err != nil {
			return err
		}

		statuses, err := s.statusRepo.ListByProjectForUpdate(txCtx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}

		byID := make(map[int64]*domain.IssueStatus, len(statuses))
		for i := range statuses {
			byID[statuses[i].ID] = &statuses[i]
		}
		if len(req.IDs) != len(statuses) {
			return domain.ErrReorderMismatch
		}

		seen := make(map[int64]bool, len(req.IDs))
		for _, id := range req.IDs {
			if seen[id] || byID[id] == nil {
				return domain.ErrReorderMismatch
			}
			seen[id] = true
		}

		out = make([]domain.IssueStatus, 0, len(req.IDs))
		for i, id := range req.IDs {
			st := byID[id]
			if st.Position != i {
				if err := s.statusRepo.SetPosition(txCtx, id, i); err != nil {
					return fmt.Errorf("failed to set position: %w", err)
				}
				st.Position = i
			}
			out = append(out, *st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("statuses reordered", slog.Int64("project_id", projectID))
	return out, nil
}

// GetStatuses returns the board columns in position order with live
// issue counts attached.
func (s *StatusService) GetStatuses(ctx context.Context, projectID, userID int64) ([]domain.IssueStatus, error) {
	if err := s.checkBoardAccess(ctx, projectID, userID, false); err != nil {
		return nil, err
	}

	statuses, err := s.statusRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	counts, err := s.statusRepo.CountsByStatus(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}
	for i := range statuses {
		statuses[i].IssueCount = counts[statuses[i].ID]
	}
	return statuses, nil
}

func (s *StatusService) checkBoardAccess(ctx context.Context, projectID, userID int64, mutating bool) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	ok, err := s.access.IsMember(ctx, project.TeamID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPermissionDenied
	}

	if mutating && project.IsArchived {
		return domain.ErrProjectArchived
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
